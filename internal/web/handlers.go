package web

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/desertthunder/wardrobe/internal/controller"
	"github.com/desertthunder/wardrobe/internal/gallery"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/desertthunder/wardrobe/internal/shared"
)

type filterLink struct {
	Label  string
	Href   string
	Active bool
}

type boardData struct {
	Title        string
	Base         string
	UploadAction string
	DeleteAction string
	State        string
	Ready        bool
	Status       controller.Status
	Session      *models.Session
	View         *gallery.View
	Filters      []filterLink
	Categories   []models.Category
	LoginURL     string
	Nav          []filterLink
}

func basePath(kind models.PageKind) string {
	if kind == models.PageWannabe {
		return "/wannabe"
	}
	return "/"
}

func actionPath(kind models.PageKind, action string) string {
	if kind == models.PageWannabe {
		return "/wannabe/" + action
	}
	return "/" + action
}

func (s *Server) board(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := s.page(r.Context(), kind)
		q := r.URL.Query()

		if ctrl.State() == controller.Ready && q.Get("refresh") != "" {
			if err := ctrl.Refresh(r.Context()); err != nil {
				s.logger.Warn("refresh", "page", kind.String(), "error", err)
			}
		}
		if kind == models.PageMain && q.Has("category") {
			category := models.Category(strings.ToLower(strings.TrimSpace(q.Get("category"))))
			if err := ctrl.SetFilter(category); err != nil {
				s.logger.Warn("filter", "category", category, "error", err)
			}
		}

		s.render(w, kind, ctrl)
	}
}

func (s *Server) render(w http.ResponseWriter, kind models.PageKind, ctrl *controller.Controller) {
	variant := ctrl.Variant()
	data := boardData{
		Title:        variant.Title,
		Base:         basePath(kind),
		UploadAction: actionPath(kind, "upload"),
		DeleteAction: actionPath(kind, "delete"),
		State:        ctrl.State().String(),
		Ready:        ctrl.State().Active(),
		Status:       ctrl.Status(),
		Session:      ctrl.Session(),
		View:         ctrl.View(),
		Nav: []filterLink{
			{Label: "My Wardrobe", Href: "/", Active: kind == models.PageMain},
			{Label: "Who I Want To Be", Href: "/wannabe", Active: kind == models.PageWannabe},
		},
	}

	if kind == models.PageMain {
		data.Categories = variant.Buckets
		filter := ctrl.Filter()
		all := append([]models.Category{models.CategoryAll}, variant.Buckets...)
		for _, c := range all {
			data.Filters = append(data.Filters, filterLink{
				Label:  c.Label(),
				Href:   "/?category=" + c.String(),
				Active: c == filter,
			})
		}
	}

	if ctrl.State() == controller.LoginRedirected && s.login != nil {
		data.LoginURL = "/auth/login"
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "board.html", data); err != nil {
		s.logger.Error("render", "page", kind.String(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) upload(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			http.Error(w, "Invalid upload form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		files, err := readFiles(r.MultipartForm.File["image"])
		if err != nil {
			s.logger.Error("read upload", "error", err)
			http.Error(w, "Could not read the uploaded files", http.StatusBadRequest)
			return
		}

		ctrl := s.page(r.Context(), kind)
		category := models.Category(strings.ToLower(strings.TrimSpace(r.FormValue("category"))))
		tally, err := ctrl.Upload(r.Context(), category, files, nil)
		if err != nil {
			s.logger.Warn("upload", "page", kind.String(), "summary", tally.Summary(), "error", err)
		}

		http.Redirect(w, r, basePath(kind), http.StatusSeeOther)
	}
}

func (s *Server) remove(kind models.PageKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}

		ctrl := s.page(r.Context(), kind)
		if err := ctrl.Delete(r.Context(), r.PostForm["path"]); err != nil {
			s.logger.Warn("delete", "page", kind.String(), "error", err)
		}

		http.Redirect(w, r, basePath(kind), http.StatusSeeOther)
	}
}

func (s *Server) startLogin(w http.ResponseWriter, r *http.Request) {
	if s.login == nil {
		http.Error(w, "LINE Login is not configured", http.StatusNotFound)
		return
	}

	state := shared.GenerateID()
	s.mu.Lock()
	s.states[state] = struct{}{}
	s.mu.Unlock()

	http.Redirect(w, r, s.login.AuthURL(state), http.StatusFound)
}

func (s *Server) callback(w http.ResponseWriter, r *http.Request) {
	if s.login == nil {
		http.Error(w, "LINE Login is not configured", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	state := q.Get("state")
	s.mu.Lock()
	_, known := s.states[state]
	delete(s.states, state)
	s.mu.Unlock()

	if !known {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		s.logger.Warn("login denied", "error", q.Get("error"), "description", q.Get("error_description"))
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	session, err := s.login.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("login exchange", "error", err)
		http.Error(w, "Login failed", http.StatusBadGateway)
		return
	}

	s.logger.Info("logged in", "user", session.UserID)
	s.reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func readFiles(headers []*multipart.FileHeader) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		files = append(files, models.UploadFile{Name: fh.Filename, Data: data})
	}
	return files, nil
}
