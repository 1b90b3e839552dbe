package api

import (
	"net/http"
	"time"

	goaway "github.com/TwiN/go-away"
	"github.com/gorilla/mux"
	"github.com/sym01/htmlsanitizer"

	gerrs "github.com/jdholdren/gossip/internal/errors"
	"github.com/jdholdren/gossip/internal/gossip"
)

type PostResp struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func postResp(p gossip.Post) PostResp {
	return PostResp{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		AuthorID:  p.AuthorID,
		Tag:       p.Tag,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createPostReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

func (req createPostReq) Validate() error {
	var details []gerrs.Detail
	if req.Title == "" {
		details = append(details, gerrs.Detail{Field: "title", Error: "is required"})
	}
	if req.Content == "" {
		details = append(details, gerrs.Detail{Field: "content", Error: "is required"})
	}
	if len(details) > 0 {
		return gerrs.E("invalid post", details, http.StatusBadRequest)
	}
	return nil
}

func (s *Server) postPosts(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	if state.Kind != kindAccount {
		return gerrs.E("only accounts can create posts", http.StatusForbidden)
	}

	req, err := decodeValid[createPostReq](r.Body)
	if err != nil {
		return err
	}

	// Keep the network readable: profanity is rejected, markup is scrubbed.
	if goaway.IsProfane(req.Title) || goaway.IsProfane(req.Content) {
		return gerrs.E("profanity detected in post", http.StatusUnprocessableEntity)
	}
	content, err := htmlsanitizer.SanitizeString(req.Content)
	if err != nil {
		return svcErr(err)
	}

	// The session may outlive the account; the author must still exist.
	if _, err := s.repo.Account(r.Context(), state.ID); err != nil {
		return svcErr(err)
	}

	post, err := s.repo.CreatePost(r.Context(), gossip.Post{
		Title:    req.Title,
		Content:  content,
		AuthorID: state.ID,
		Tag:      req.Tag,
	})
	if err != nil {
		return svcErr(err)
	}

	// Best-effort: listeners hear about it, nobody waits on them.
	s.hub.NewPost(postResp(post))

	return writeJSON(w, http.StatusCreated, postResp(post))
}

type postListResp struct {
	Data []PostResp `json:"data"`
	pageMeta
}

func (s *Server) getPosts(w http.ResponseWriter, r *http.Request) error {
	pg := parsePageParams(r)

	posts, count, err := s.repo.AllPosts(r.Context(), pg.Limit, pg.Offset())
	if err != nil {
		return svcErr(err)
	}

	resp := postListResp{
		Data: make([]PostResp, 0, len(posts)),
		pageMeta: pageMeta{
			Page:      pg.Page,
			Limit:     pg.Limit,
			PageTotal: gossip.PageTotal(count, pg.Limit),
		},
	}
	for _, p := range posts {
		resp.Data = append(resp.Data, postResp(p))
	}

	return writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["postID"]

	if resp, ok := s.postCache.Get(id); ok {
		return writeJSON(w, http.StatusOK, resp)
	}

	post, err := s.repo.Post(r.Context(), id)
	if err != nil {
		return svcErr(err)
	}

	resp := postResp(post)
	s.postCache.Add(id, resp)

	return writeJSON(w, http.StatusOK, resp)
}

type updatePostReq struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

func (req updatePostReq) Validate() error {
	if req.Title == "" && req.Content == "" && req.Tag == "" {
		return gerrs.E("nothing to update", http.StatusBadRequest)
	}
	return nil
}

// putPost serves both principal kinds: the author edits their own post, a
// moderator edits anyone's. Authorship is never reassigned by an edit.
func (s *Server) putPost(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	id := mux.Vars(r)["postID"]

	req, err := decodeValid[updatePostReq](r.Body)
	if err != nil {
		return err
	}

	post, err := s.repo.Post(r.Context(), id)
	if err != nil {
		return svcErr(err)
	}

	if state.Kind != kindModerator && post.AuthorID != state.ID {
		return gerrs.E("you can update your own posts only", http.StatusForbidden)
	}

	if req.Title != "" {
		if goaway.IsProfane(req.Title) {
			return gerrs.E("profanity detected in post", http.StatusUnprocessableEntity)
		}
		post.Title = req.Title
	}
	if req.Content != "" {
		if goaway.IsProfane(req.Content) {
			return gerrs.E("profanity detected in post", http.StatusUnprocessableEntity)
		}
		content, err := htmlsanitizer.SanitizeString(req.Content)
		if err != nil {
			return svcErr(err)
		}
		post.Content = content
	}
	if req.Tag != "" {
		post.Tag = req.Tag
	}

	post, err = s.repo.UpdatePost(r.Context(), post)
	if err != nil {
		return svcErr(err)
	}

	s.postCache.Remove(id)

	return writeJSON(w, http.StatusOK, postResp(post))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	id := mux.Vars(r)["postID"]

	post, err := s.repo.Post(r.Context(), id)
	if err != nil {
		return svcErr(err)
	}

	// Only the author deletes a post; moderation stops at edits.
	if state.Kind != kindAccount || post.AuthorID != state.ID {
		return gerrs.E("you can delete your own posts only", http.StatusForbidden)
	}

	if err := s.repo.DeletePost(r.Context(), id); err != nil {
		return svcErr(err)
	}

	s.postCache.Remove(id)

	return writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) error {
	state := session(r, s.secureCookie)
	if state.Kind != kindAccount {
		return gerrs.E("only accounts have a feed", http.StatusForbidden)
	}

	q := r.URL.Query()
	page, err := s.feed.Feed(r.Context(), state.ID, parsePageParams(r), q.Get("sortBy"), q.Get("order"))
	if err != nil {
		return svcErr(err)
	}

	return writeJSON(w, http.StatusOK, page)
}
