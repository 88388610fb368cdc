package http

import (
	"net/http"
	"strconv"
	"strings"
)

// RouterConfig collects the handlers served by the coordinator API.
type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Speakers   *SpeakerHandler
	Dates      *DateHandler
	Agendas    *AgendaHandler
	Respond    *RespondHandler
	Middleware []func(http.Handler) http.Handler
}

// PublicPath reports whether a request path must bypass session
// authentication: login, signup claims, and the speaker self-service
// surface reached by invitation link.
func PublicPath(path string) bool {
	if path == "/sessions" {
		return true
	}
	return strings.HasPrefix(path, "/respond/") || strings.HasPrefix(path, "/signup/")
}

// NewRouter assembles the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
		mux.HandleFunc("/sessions/current", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Auth.DeleteCurrentSession(w, r)
		})
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Users.List(w, r)
		})
		mux.HandleFunc("/users/invites", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.Invite(w, r)
		})
		mux.HandleFunc("/signup/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/signup/")
			if token == "" || strings.Contains(token, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.Claim(w, r, token)
		})
	}

	if cfg.Speakers != nil {
		mux.HandleFunc("/speakers", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Speakers.List(w, r)
			case http.MethodPost:
				cfg.Speakers.Propose(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/speakers/", func(w http.ResponseWriter, r *http.Request) {
			routeSpeaker(cfg, w, r)
		})
	}

	if cfg.Dates != nil {
		mux.HandleFunc("/dates", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Dates.List(w, r)
			case http.MethodPost:
				cfg.Dates.Publish(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/dates/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/dates/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithDateID(r.Context(), id))
			switch r.Method {
			case http.MethodGet:
				cfg.Dates.Get(w, r)
			case http.MethodDelete:
				cfg.Dates.SoftDelete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Respond != nil {
		mux.HandleFunc("/respond/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/respond/")
			if token == "" || strings.Contains(token, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Respond.Show(w, r, token)
			case http.MethodPost:
				cfg.Respond.Respond(w, r, token)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}

// routeSpeaker dispatches the nested speaker routes: lifecycle
// transitions, the action log, and the visit agenda.
func routeSpeaker(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/speakers/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}

	id := parts[0]
	r = r.WithContext(ContextWithSpeakerID(r.Context(), id))

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			cfg.Speakers.Get(w, r)
		case http.MethodPut:
			cfg.Speakers.Update(w, r)
		case http.MethodDelete:
			cfg.Speakers.Delete(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}

	case len(parts) == 2 && parts[1] == "invite":
		requirePost(w, r, cfg.Speakers.Invite)
	case len(parts) == 2 && parts[1] == "resend":
		requirePost(w, r, cfg.Speakers.Resend)
	case len(parts) == 2 && parts[1] == "reject":
		requirePost(w, r, cfg.Speakers.Reject)

	case len(parts) == 2 && parts[1] == "actions":
		requirePost(w, r, cfg.Speakers.AppendAction)
	case len(parts) == 3 && parts[1] == "actions":
		index, err := strconv.Atoi(parts[2])
		if err != nil || index < 0 {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		cfg.Speakers.SetActionCompleted(w, r, index)

	case len(parts) == 2 && parts[1] == "agenda" && cfg.Agendas != nil:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Agendas.Get(w, r)
	case len(parts) == 2 && parts[1] == "agenda.ics" && cfg.Agendas != nil:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Agendas.ExportICS(w, r)
	case len(parts) == 3 && parts[1] == "agenda" && parts[2] == "meetings" && cfg.Agendas != nil:
		requirePost(w, r, cfg.Agendas.AddMeeting)
	case len(parts) == 4 && parts[1] == "agenda" && parts[2] == "meetings" && cfg.Agendas != nil:
		index, err := strconv.Atoi(parts[3])
		if err != nil || index < 0 {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		cfg.Agendas.RemoveMeeting(w, r, index)

	default:
		http.NotFound(w, r)
	}
}

func requirePost(w http.ResponseWriter, r *http.Request, handler func(http.ResponseWriter, *http.Request)) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	handler(w, r)
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
