package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const cookieName = "pid"

// Server holds one engine per browser session.
type Server struct {
	mu sync.Mutex

	content       *Content
	saves         SaveStore
	sessions      map[string]*Engine
	toastByPlayer map[string]string
	saveTimeout   time.Duration

	rng RandomSource
}

type DebateView struct {
	Question DebateQuestion `json:"question"`
	Number   int            `json:"number"`
	Total    int            `json:"total"`
	Answered bool           `json:"answered"`
}

type CandidateView struct {
	CabinetCandidate
	Risk string `json:"risk"`
}

// StateView is everything a client needs to draw the current screen.
type StateView struct {
	PlayerID       string           `json:"playerId"`
	Notice         string           `json:"notice,omitempty"`
	State          GameState        `json:"state"`
	World          WorldState       `json:"world"`
	CanStartDebate bool             `json:"canStartDebate"`
	PoliciesNeeded int              `json:"policiesNeeded"`
	CanResume      bool             `json:"canResume"`
	Debate         *DebateView      `json:"debate,omitempty"`
	Election       *ElectionOutcome `json:"election,omitempty"`
	CurrentEvent   *GovernmentEvent `json:"currentEvent,omitempty"`
	EventBadge     *DisplayMeta     `json:"eventBadge,omitempty"`
	SelectedChoice *EventChoice     `json:"selectedChoice,omitempty"`
	HiringFor      CabinetPosition  `json:"hiringFor,omitempty"`
	Candidates     []CandidateView  `json:"candidates,omitempty"`
	Cabinet        []CabinetMember  `json:"cabinet"`
	CabinetSummary CabinetSummary   `json:"cabinetSummary"`
	Headlines      []string         `json:"headlines"`
	Legacy         *Legacy          `json:"legacy,omitempty"`
}

func main() {
	play := flag.Bool("play", false, "play in the terminal instead of serving HTTP")
	user := flag.String("user", "local", "save slot used by -play")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	content, err := loadEmbeddedContent()
	if err != nil {
		log.Fatalf("content: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saves, err := openSaveStore(ctx, cfg)
	if err != nil {
		log.Printf("saving disabled: %v", err)
	} else {
		defer saves.Close()
		startCleanupScheduler(ctx, saves, cfg.SaveRetention)
	}
	rng := newRandomSource(cfg.ElectionSeed)

	if *play {
		t := &Terminal{
			engine:      NewEngine(content),
			saves:       saves,
			rng:         rng,
			userID:      *user,
			saveTimeout: cfg.SaveTimeout,
		}
		if err := t.Run(ctx, os.Stdin, os.Stdout); err != nil {
			log.Fatalf("terminal: %v", err)
		}
		return
	}

	srv := newServer(content, saves, rng, cfg.SaveTimeout)
	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on http://localhost%s", cfg.ServerAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newServer(content *Content, saves SaveStore, rng RandomSource, saveTimeout time.Duration) *Server {
	return &Server{
		content:       content,
		saves:         saves,
		sessions:      map[string]*Engine{},
		toastByPlayer: map[string]string{},
		saveTimeout:   saveTimeout,
		rng:           rng,
	}
}

func newRouter(srv *Server) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/content", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"policies":   srv.content.Policies,
			"debates":    srv.content.Debates,
			"events":     srv.content.Events.Events(),
			"candidates": srv.content.Candidates,
			"units":      srv.content.Units,
			"votesToWin": votesToWin(srv.content.Units),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		// Concurrency model: lock for full handler to keep all reads/writes consistent and race-free.
		srv.mu.Lock()
		defer srv.mu.Unlock()

		pid, _ := ensureSessionLocked(srv, w, r)
		writeJSON(w, http.StatusOK, buildStateViewLocked(srv, pid, cabinetSort(r), true))
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/action", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		srv.mu.Lock()
		defer srv.mu.Unlock()

		pid, e := ensureSessionLocked(srv, w, r)
		action := strings.TrimSpace(r.FormValue("action"))
		arg := strings.TrimSpace(r.FormValue("arg"))

		status := http.StatusOK
		notice, err := applyAction(e, srv.rng, action, arg)
		if err != nil {
			notice = noticeForError(err)
			status = http.StatusConflict
			if errors.Is(err, ErrUnknownAction) {
				status = http.StatusBadRequest
			}
		}
		setToastLocked(srv, pid, notice)
		writeJSON(w, status, buildStateViewLocked(srv, pid, cabinetSort(r), true))
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/save", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		srv.mu.Lock()
		defer srv.mu.Unlock()

		pid, e := ensureSessionLocked(srv, w, r)
		ctx, cancel := context.WithTimeout(r.Context(), srv.saveTimeout)
		defer cancel()
		if _, err := SaveGame(ctx, srv.saves, pid, e); err != nil {
			log.Printf("persist state failed: %v", err)
			setToastLocked(srv, pid, "Saving failed. Your game is still in progress.")
			writeJSON(w, http.StatusServiceUnavailable, buildStateViewLocked(srv, pid, cabinetSort(r), true))
			return
		}
		notice := "Game saved."
		if r.FormValue("exit") == "1" && e.GoToTitle() == nil {
			notice = "Game saved. See you soon."
		}
		setToastLocked(srv, pid, notice)
		writeJSON(w, http.StatusOK, buildStateViewLocked(srv, pid, cabinetSort(r), true))
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/load", func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		defer srv.mu.Unlock()

		pid, _ := ensureSessionLocked(srv, w, r)
		ctx, cancel := context.WithTimeout(r.Context(), srv.saveTimeout)
		defer cancel()
		loaded, found, err := LoadGame(ctx, srv.saves, srv.content, pid)
		switch {
		case err != nil:
			log.Printf("load state failed: %v", err)
			setToastLocked(srv, pid, "Loading failed. Your current game is unchanged.")
			writeJSON(w, http.StatusServiceUnavailable, buildStateViewLocked(srv, pid, cabinetSort(r), true))
			return
		case !found:
			setToastLocked(srv, pid, "No saved game.")
			writeJSON(w, http.StatusNotFound, buildStateViewLocked(srv, pid, cabinetSort(r), true))
			return
		}
		srv.sessions[pid] = loaded
		setToastLocked(srv, pid, "Game loaded.")
		writeJSON(w, http.StatusOK, buildStateViewLocked(srv, pid, cabinetSort(r), true))
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/delete", func(w http.ResponseWriter, r *http.Request) {
		srv.mu.Lock()
		defer srv.mu.Unlock()

		pid, _ := ensureSessionLocked(srv, w, r)
		if srv.saves == nil {
			setToastLocked(srv, pid, "Saving is not available.")
			writeJSON(w, http.StatusServiceUnavailable, buildStateViewLocked(srv, pid, cabinetSort(r), true))
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), srv.saveTimeout)
		defer cancel()
		if err := srv.saves.Delete(ctx, pid); err != nil {
			log.Printf("delete save failed: %v", err)
			setToastLocked(srv, pid, "Deleting the save failed.")
			writeJSON(w, http.StatusServiceUnavailable, buildStateViewLocked(srv, pid, cabinetSort(r), true))
			return
		}
		setToastLocked(srv, pid, "Saved game deleted.")
		writeJSON(w, http.StatusOK, buildStateViewLocked(srv, pid, cabinetSort(r), true))
	}).Methods(http.MethodPost)

	return r
}

func ensureSessionLocked(srv *Server, w http.ResponseWriter, r *http.Request) (string, *Engine) {
	var pid string
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		pid = c.Value
	} else {
		pid = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    pid,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	e := srv.sessions[pid]
	if e == nil {
		e = NewEngine(srv.content)
		srv.sessions[pid] = e
	}
	return pid, e
}

func setToastLocked(srv *Server, pid, text string) {
	srv.toastByPlayer[pid] = text
}

func popToastLocked(srv *Server, pid string) string {
	msg := srv.toastByPlayer[pid]
	delete(srv.toastByPlayer, pid)
	return msg
}

func cabinetSort(r *http.Request) CabinetSort {
	switch CabinetSort(r.URL.Query().Get("sort")) {
	case SortByLoyalty:
		return SortByLoyalty
	case SortByCompetence:
		return SortByCompetence
	}
	return SortByPosition
}

func buildStateViewLocked(srv *Server, pid string, by CabinetSort, consumeToast bool) StateView {
	e := srv.sessions[pid]
	v := StateView{
		PlayerID:       pid,
		State:          e.State(),
		World:          e.World(),
		CanStartDebate: e.CanStartDebate(),
		PoliciesNeeded: e.PoliciesNeeded(),
		CanResume:      e.CanResume(),
		Cabinet:        e.SortedCabinet(by),
		CabinetSummary: e.CabinetSummary(),
		Headlines:      e.Headlines(),
	}
	if consumeToast {
		v.Notice = popToastLocked(srv, pid)
	}

	switch e.Phase() {
	case PhaseDebate:
		if q, i, ok := e.CurrentDebateQuestion(); ok {
			v.Debate = &DebateView{Question: q, Number: i + 1, Total: len(srv.content.Debates), Answered: e.DebateAnswered()}
		}
	case PhaseElection:
		if out, ok := e.LastElection(); ok {
			v.Election = &out
		}
	case PhaseGoverning:
		if ev, ok := e.CurrentEvent(); ok {
			badge := ev.Category.Badge()
			v.CurrentEvent = &ev
			v.EventBadge = &badge
		}
		if c, ok := e.SelectedChoice(); ok {
			v.SelectedChoice = &c
		}
		if pos, ok := e.HiringRequirement(); ok {
			v.HiringFor = pos
			for _, cand := range srv.content.CandidatesForPosition(pos) {
				v.Candidates = append(v.Candidates, CandidateView{CabinetCandidate: cand, Risk: cand.ControversyRisk()})
			}
		}
	case PhaseGameOver:
		l := e.Legacy()
		v.Legacy = &l
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}
