package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"honquedoro/internal/app"
	"honquedoro/internal/cache"
	"honquedoro/internal/clock"
	"honquedoro/internal/db"
)

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type activeSession struct {
	ID               int64   `json:"id"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	DurationMinutes  int     `json:"durationMinutes"`
	RemainingSeconds int     `json:"remainingSeconds"`
	ElapsedSeconds   int     `json:"elapsedSeconds"`
	Progress         float64 `json:"progressPercentage"`
	EstimatedEndTime *string `json:"estimatedEndTime"`
}

type timerState struct {
	HasActiveSession bool           `json:"hasActiveSession"`
	ActiveSession    *activeSession `json:"activeSession"`
	Message          string         `json:"message"`
}

type sessionView struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Duration    int    `json:"duration"`
	IsCompleted bool   `json:"isCompleted"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type testServer struct {
	handler http.Handler
	app     *app.App
	clock   *clock.Fixed
}

var testStart = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

func TestSessionLifecycle(t *testing.T) {
	srv := setupTestEngine(t, false)

	started := startSession(t, srv, "Work", 25)
	if started.Status != "Active" || started.RemainingSeconds != 1500 {
		t.Fatalf("unexpected started session %+v", started)
	}
	if started.EstimatedEndTime == nil {
		t.Fatal("expected estimatedEndTime while active")
	}

	status, body := requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"type": "ShortBreak", "durationMinutes": 5,
	})
	expectError(t, status, body, http.StatusBadRequest, "session_already_open")

	srv.clock.Advance(60 * time.Second)
	paused := sessionAction(t, srv, http.MethodPost, "/api/sessions/pause/", started.ID)
	if paused.Status != "Paused" || paused.RemainingSeconds != 1440 {
		t.Fatalf("unexpected paused session %+v", paused)
	}
	if paused.EstimatedEndTime != nil {
		t.Fatal("expected no estimatedEndTime while paused")
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/pause/", started.ID), "", nil)
	expectError(t, status, body, http.StatusBadRequest, "session_not_active")

	srv.clock.Advance(120 * time.Second)
	state := getActive(t, srv, "")
	if !state.HasActiveSession || state.ActiveSession.Status != "Paused" || state.ActiveSession.RemainingSeconds != 1440 {
		t.Fatalf("expected paused session with frozen time, got %+v", state)
	}

	resumed := sessionAction(t, srv, http.MethodPost, "/api/sessions/resume/", started.ID)
	if resumed.Status != "Active" || resumed.RemainingSeconds != 1440 {
		t.Fatalf("unexpected resumed session %+v", resumed)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/resume/", started.ID), "", nil)
	expectError(t, status, body, http.StatusBadRequest, "session_not_paused")

	srv.clock.Advance(100 * time.Second)
	state = getActive(t, srv, "")
	if state.ActiveSession.RemainingSeconds != 1340 {
		t.Fatalf("expected 1340 remaining, got %d", state.ActiveSession.RemainingSeconds)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/complete/", started.ID), "", map[string]string{
		"notes": "wrote the report",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 on complete, got %d: %s", status, body)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/complete/", started.ID), "", nil)
	expectError(t, status, body, http.StatusBadRequest, "session_already_completed")

	status, body = requestJSON(t, srv.handler, http.MethodDelete, pathWithID("/api/sessions/cancel/", started.ID), "", nil)
	expectError(t, status, body, http.StatusBadRequest, "session_already_completed")

	state = getActive(t, srv, "")
	if state.HasActiveSession {
		t.Fatalf("expected no active session, got %+v", state)
	}

	var view sessionView
	status, body = requestJSON(t, srv.handler, http.MethodGet, pathWithID("/api/sessions/", started.ID), "", nil)
	decode(t, status, body, &view)
	if !view.IsCompleted || view.Status != "Completed" || view.Notes != "wrote the report" || view.Type != "Work" {
		t.Fatalf("unexpected completed view %+v", view)
	}

	var recent []sessionView
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/sessions/recent?count=5", "", nil)
	decode(t, status, body, &recent)
	if len(recent) != 1 || recent[0].ID != started.ID {
		t.Fatalf("unexpected recent sessions %+v", recent)
	}

	var today []sessionView
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/sessions/today", "", nil)
	decode(t, status, body, &today)
	if len(today) != 1 {
		t.Fatalf("expected one session today, got %d", len(today))
	}

	var dashboard struct {
		TodayStats struct {
			CompletedSessions int `json:"completedSessions"`
			TotalWorkTime     int `json:"totalWorkTime"`
			CurrentStreak     int `json:"currentStreak"`
			BestStreak        int `json:"bestStreak"`
		} `json:"todayStats"`
		WeeklyGoal struct {
			Target    int `json:"target"`
			Completed int `json:"completed"`
		} `json:"weeklyGoal"`
		RecentSessions []sessionView `json:"recentSessions"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/dashboard", "", nil)
	decode(t, status, body, &dashboard)
	if dashboard.TodayStats.CompletedSessions != 1 || dashboard.TodayStats.TotalWorkTime != 25 {
		t.Fatalf("unexpected today stats %+v", dashboard.TodayStats)
	}
	if dashboard.TodayStats.CurrentStreak != 1 || dashboard.TodayStats.BestStreak != 1 {
		t.Fatalf("unexpected streaks %+v", dashboard.TodayStats)
	}
	if dashboard.WeeklyGoal.Target != 40 || dashboard.WeeklyGoal.Completed != 1 {
		t.Fatalf("unexpected weekly goal %+v", dashboard.WeeklyGoal)
	}
	if len(dashboard.RecentSessions) != 1 {
		t.Fatalf("expected one recent session, got %d", len(dashboard.RecentSessions))
	}

	var achievements []struct {
		Title  string `json:"title"`
		Earned bool   `json:"earned"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/statistics/achievements", "", nil)
	decode(t, status, body, &achievements)
	if len(achievements) != 6 {
		t.Fatalf("expected 6 achievements, got %d", len(achievements))
	}
	if achievements[0].Title != "First Session" || !achievements[0].Earned {
		t.Fatalf("expected first session achievement earned, got %+v", achievements[0])
	}
	if achievements[2].Earned {
		t.Fatalf("did not expect %s to be earned", achievements[2].Title)
	}
}

func TestCancelIsIdempotentAndMissingSessions404(t *testing.T) {
	srv := setupTestEngine(t, false)

	started := startSession(t, srv, "ShortBreak", 5)
	for i := 0; i < 2; i++ {
		status, body := requestJSON(t, srv.handler, http.MethodDelete, pathWithID("/api/sessions/cancel/", started.ID), "", nil)
		if status != http.StatusOK {
			t.Fatalf("cancel attempt %d: expected 200, got %d: %s", i+1, status, body)
		}
	}

	status, body := requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/complete/", started.ID), "", nil)
	expectError(t, status, body, http.StatusBadRequest, "session_cancelled")

	for _, path := range []string{"/api/sessions/pause/999", "/api/sessions/resume/999", "/api/sessions/complete/999"} {
		status, body := requestJSON(t, srv.handler, http.MethodPost, path, "", nil)
		expectError(t, status, body, http.StatusNotFound, "session_not_found")
	}
	status, body = requestJSON(t, srv.handler, http.MethodDelete, "/api/sessions/cancel/999", "", nil)
	expectError(t, status, body, http.StatusNotFound, "session_not_found")

	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/sessions/abc", "", nil)
	expectError(t, status, body, http.StatusBadRequest, "invalid_id")

	// A cancelled session does not block a new start.
	startSession(t, srv, "Work", 25)
}

func TestExpiredSessionIsReportedAndReplacedOnStart(t *testing.T) {
	srv := setupTestEngine(t, false)

	first := startSession(t, srv, "Work", 1)
	srv.clock.Advance(61 * time.Second)

	state := getActive(t, srv, "")
	if state.HasActiveSession || state.Message != "Session expired" {
		t.Fatalf("expected expired report, got %+v", state)
	}

	second := startSession(t, srv, "ShortBreak", 5)
	if second.ID == first.ID {
		t.Fatal("expected a new session id")
	}

	var view sessionView
	status, body := requestJSON(t, srv.handler, http.MethodGet, pathWithID("/api/sessions/", first.ID), "", nil)
	decode(t, status, body, &view)
	if view.Status != "Completed" {
		t.Fatalf("expected expired session to be completed, got %s", view.Status)
	}
}

func TestSweeperCompletesExpiredSessions(t *testing.T) {
	srv := setupTestEngine(t, false)

	started := startSession(t, srv, "Work", 2)
	srv.clock.Advance(30 * time.Second)
	if completed := srv.app.Sweeper.Sweep(context.Background()); completed != 0 {
		t.Fatalf("expected nothing to sweep, got %d", completed)
	}

	srv.clock.Advance(2 * time.Minute)
	if completed := srv.app.Sweeper.Sweep(context.Background()); completed != 1 {
		t.Fatalf("expected one swept session, got %d", completed)
	}

	var view sessionView
	status, body := requestJSON(t, srv.handler, http.MethodGet, pathWithID("/api/sessions/", started.ID), "", nil)
	decode(t, status, body, &view)
	if !view.IsCompleted {
		t.Fatalf("expected swept session completed, got %+v", view)
	}

	var overall struct {
		TotalSessions  int `json:"totalSessions"`
		TotalFocusTime int `json:"totalFocusTime"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/statistics/overall", "", nil)
	decode(t, status, body, &overall)
	if overall.TotalSessions != 1 || overall.TotalFocusTime != 2 {
		t.Fatalf("unexpected overall stats %+v", overall)
	}
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	srv := setupTestEngine(t, false)

	srv.app.Sweeper.Start()
	srv.app.Sweeper.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.app.Sweeper.Stop()
		srv.app.Sweeper.Stop()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("expected repeated Stop calls to return")
	}

	idle := setupTestEngine(t, false)
	idle.app.Sweeper.Stop()
	idle.app.Sweeper.Start()
	idle.app.Sweeper.Stop()
}

func TestStatisticsCacheIsInvalidatedOnCompletion(t *testing.T) {
	srv := setupTestEngine(t, false)

	var before struct {
		CompletedSessions int `json:"completedSessions"`
	}
	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/dashboard/today-stats", "", nil)
	decode(t, status, body, &before)
	if before.CompletedSessions != 0 {
		t.Fatalf("expected no sessions yet, got %d", before.CompletedSessions)
	}

	started := startSession(t, srv, "Work", 25)
	status, body = requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/complete/", started.ID), "", nil)
	if status != http.StatusOK {
		t.Fatalf("complete: %d %s", status, body)
	}

	var after struct {
		CompletedSessions int `json:"completedSessions"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/dashboard/today-stats", "", nil)
	decode(t, status, body, &after)
	if after.CompletedSessions != 1 {
		t.Fatalf("expected cached stats to refresh, got %d", after.CompletedSessions)
	}
}

func TestStartValidation(t *testing.T) {
	srv := setupTestEngine(t, false)

	status, body := requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"type": "Nap", "durationMinutes": 25,
	})
	expectError(t, status, body, http.StatusBadRequest, "invalid_json")

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"type": "Work", "durationMinutes": 61,
	})
	expectError(t, status, body, http.StatusBadRequest, "validation_failed")

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"durationMinutes": 25,
	})
	expectError(t, status, body, http.StatusBadRequest, "validation_failed")

	var started activeSession
	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"type": 2, "durationMinutes": 15,
	})
	decode(t, status, body, &started)
	if started.Type != "LongBreak" || started.RemainingSeconds != 900 {
		t.Fatalf("expected integer type to be accepted, got %+v", started)
	}
}

func TestAuthRequiredIsolatesUsers(t *testing.T) {
	srv := setupTestEngine(t, true)

	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/sessions/active", "", nil)
	expectError(t, status, body, http.StatusUnauthorized, "unauthorized")

	user1 := registerUser(t, srv.handler, "user1@example.com", "123456")
	user2 := registerUser(t, srv.handler, "user2@example.com", "123456")

	var started activeSession
	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", user1.Token, map[string]interface{}{
		"type": "Work", "durationMinutes": 25,
	})
	decode(t, status, body, &started)

	if state := getActive(t, srv, user2.Token); state.HasActiveSession {
		t.Fatalf("user2 should not see user1's session: %+v", state)
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, pathWithID("/api/sessions/", started.ID), user2.Token, nil)
	expectError(t, status, body, http.StatusNotFound, "session_not_found")

	// user2 can run a session of their own at the same time.
	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", user2.Token, map[string]interface{}{
		"type": "Work", "durationMinutes": 25,
	})
	if status != http.StatusOK {
		t.Fatalf("expected user2 start to succeed, got %d: %s", status, body)
	}

	var settings struct {
		WorkDurationMinutes int `json:"workDurationMinutes"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/settings", user1.Token, nil)
	decode(t, status, body, &settings)
	if settings.WorkDurationMinutes != 25 {
		t.Fatalf("expected default settings on register, got %+v", settings)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "user1@example.com", "password": "wrong-password",
	})
	expectError(t, status, body, http.StatusUnauthorized, "unauthorized")
}

func TestSettingsAndTimerConfig(t *testing.T) {
	srv := setupTestEngine(t, false)

	type settingsBody struct {
		WorkDurationMinutes       int  `json:"workDurationMinutes"`
		ShortBreakDurationMinutes int  `json:"shortBreakDurationMinutes"`
		LongBreakDurationMinutes  int  `json:"longBreakDurationMinutes"`
		SessionsUntilLongBreak    int  `json:"sessionsUntilLongBreak"`
		AutoStartBreaks           bool `json:"autoStartBreaks"`
		AutoStartWork             bool `json:"autoStartWork"`
		PlayNotificationSounds    bool `json:"playNotificationSounds"`
		ShowDesktopNotifications  bool `json:"showDesktopNotifications"`
		DailyGoalSessions         int  `json:"dailyGoalSessions"`
		WeeklyGoalSessions        int  `json:"weeklyGoalSessions"`
	}

	var current settingsBody
	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/settings", "", nil)
	decode(t, status, body, &current)
	if current.WorkDurationMinutes != 25 || current.SessionsUntilLongBreak != 4 || current.WeeklyGoalSessions != 40 {
		t.Fatalf("unexpected defaults %+v", current)
	}

	invalid := current
	invalid.SessionsUntilLongBreak = 1
	status, body = requestJSON(t, srv.handler, http.MethodPut, "/api/settings", "", invalid)
	expectError(t, status, body, http.StatusBadRequest, "validation_failed")

	updated := current
	updated.WorkDurationMinutes = 50
	updated.WeeklyGoalSessions = 10
	status, body = requestJSON(t, srv.handler, http.MethodPut, "/api/settings", "", updated)
	decode(t, status, body, &current)
	if current.WorkDurationMinutes != 50 {
		t.Fatalf("expected update to persist, got %+v", current)
	}

	var goal struct {
		Target int `json:"target"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/dashboard/weekly-goal", "", nil)
	decode(t, status, body, &goal)
	if goal.Target != 10 {
		t.Fatalf("expected weekly target from settings, got %d", goal.Target)
	}

	var timerConfig struct {
		WorkDuration       int  `json:"workDuration"`
		ShortBreakDuration int  `json:"shortBreakDuration"`
		AutoStartBreaks    bool `json:"autoStartBreaks"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodPut, "/api/settings/timer-config", "", map[string]interface{}{
		"shortBreakDuration": 10,
		"autoStartBreaks":    true,
	})
	decode(t, status, body, &timerConfig)
	if timerConfig.WorkDuration != 50 || timerConfig.ShortBreakDuration != 10 || !timerConfig.AutoStartBreaks {
		t.Fatalf("expected partial update, got %+v", timerConfig)
	}

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/settings/timer-config", "", map[string]interface{}{
		"workDuration": 30,
		"darkMode":     true,
	})
	expectError(t, status, body, http.StatusBadRequest, "unknown_field")

	status, body = requestJSON(t, srv.handler, http.MethodPut, "/api/settings/timer-config", "", map[string]interface{}{
		"longBreakDuration": 61,
	})
	expectError(t, status, body, http.StatusBadRequest, "validation_failed")

	status, body = requestJSON(t, srv.handler, http.MethodPost, "/api/settings/reset", "", nil)
	decode(t, status, body, &current)
	if current.WorkDurationMinutes != 25 || current.ShortBreakDurationMinutes != 5 {
		t.Fatalf("expected defaults after reset, got %+v", current)
	}
}

func TestStatisticsEndpoints(t *testing.T) {
	srv := setupTestEngine(t, false)

	for i := 0; i < 3; i++ {
		started := startSession(t, srv, "Work", 25)
		status, body := requestJSON(t, srv.handler, http.MethodPost, pathWithID("/api/sessions/complete/", started.ID), "", nil)
		if status != http.StatusOK {
			t.Fatalf("complete: %d %s", status, body)
		}
		srv.clock.Advance(24 * time.Hour)
	}
	srv.clock.Advance(-24 * time.Hour)

	var page struct {
		OverallStats struct {
			TotalSessions           int     `json:"totalSessions"`
			TotalFocusTime          int     `json:"totalFocusTime"`
			TotalFocusTimeFormatted string  `json:"totalFocusTimeFormatted"`
			AverageSessionsPerDay   float64 `json:"averageSessionsPerDay"`
			CurrentStreak           int     `json:"currentStreak"`
			LongestStreak           int     `json:"longestStreak"`
		} `json:"overallStats"`
		WeeklyData []struct {
			Day      string `json:"day"`
			Sessions int    `json:"sessions"`
		} `json:"weeklyData"`
		MaxSessions        int `json:"maxSessions"`
		EarnedAchievements int `json:"earnedAchievements"`
	}
	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/statistics", "", nil)
	decode(t, status, body, &page)
	if page.OverallStats.TotalSessions != 3 || page.OverallStats.TotalFocusTime != 75 {
		t.Fatalf("unexpected totals %+v", page.OverallStats)
	}
	if page.OverallStats.TotalFocusTimeFormatted != "1h 15m" {
		t.Fatalf("unexpected formatted time %q", page.OverallStats.TotalFocusTimeFormatted)
	}
	if page.OverallStats.CurrentStreak != 3 || page.OverallStats.LongestStreak != 3 {
		t.Fatalf("unexpected streaks %+v", page.OverallStats)
	}
	if page.OverallStats.AverageSessionsPerDay != 1 {
		t.Fatalf("expected 1 session/day, got %v", page.OverallStats.AverageSessionsPerDay)
	}
	// Wednesday, Thursday and Friday of the same Monday-based week.
	if len(page.WeeklyData) != 7 || page.WeeklyData[0].Day != "Mon" {
		t.Fatalf("unexpected weekly layout %+v", page.WeeklyData)
	}
	if page.WeeklyData[2].Sessions != 1 || page.WeeklyData[4].Sessions != 1 || page.MaxSessions != 1 {
		t.Fatalf("unexpected weekly data %+v", page.WeeklyData)
	}
	if page.EarnedAchievements != 1 {
		t.Fatalf("expected one earned achievement, got %d", page.EarnedAchievements)
	}

	var monthly []struct {
		Day      string `json:"day"`
		Sessions int    `json:"sessions"`
	}
	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/statistics/monthly/2026/10", "", nil)
	decode(t, status, body, &monthly)
	if len(monthly) != 31 || monthly[13].Day != "14" || monthly[13].Sessions != 1 {
		t.Fatalf("unexpected monthly data %+v", monthly)
	}

	status, body = requestJSON(t, srv.handler, http.MethodGet, "/api/statistics/monthly/2026/13", "", nil)
	expectError(t, status, body, http.StatusBadRequest, "invalid_month")
}

func TestCORSPreflight(t *testing.T) {
	srv := setupTestEngine(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions/cancel/1", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	recorder := httptest.NewRecorder()

	srv.handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "http://localhost:4200" {
		t.Fatalf("unexpected allow-origin header: %s", recorder.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(recorder.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Fatalf("expected DELETE to be allowed, got %s", recorder.Header().Get("Access-Control-Allow-Methods"))
	}
	if recorder.Header().Get("Access-Control-Max-Age") != "3600" {
		t.Fatalf("expected max age from the policy, got %q", recorder.Header().Get("Access-Control-Max-Age"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/sessions/start", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	recorder = httptest.NewRecorder()
	srv.handler.ServeHTTP(recorder, req)
	expectError(t, recorder.Code, recorder.Body.Bytes(), http.StatusForbidden, "origin_not_allowed")
	if recorder.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected no allow-origin header for a foreign origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "HTTP://LOCALHOST:4200/")
	recorder = httptest.NewRecorder()
	srv.handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK || recorder.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected a normalized origin to be allowed on a simple request, got %d", recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatal("expected preflight headers only on preflight requests")
	}
}

func TestBearerSchemeIsCaseInsensitive(t *testing.T) {
	srv := setupTestEngine(t, true)
	user := registerUser(t, srv.handler, "case@example.com", "123456")

	for header, want := range map[string]int{
		"bearer " + user.Token:  http.StatusOK,
		"BEARER  " + user.Token: http.StatusOK,
		"Basic " + user.Token:   http.StatusUnauthorized,
		"Bearer":                http.StatusUnauthorized,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions/active", nil)
		req.Header.Set("Authorization", header)
		recorder := httptest.NewRecorder()
		srv.handler.ServeHTTP(recorder, req)
		if recorder.Code != want {
			t.Fatalf("authorization %q: expected %d, got %d", header[:6], want, recorder.Code)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := setupTestEngine(t, false)

	status, _ := requestJSON(t, srv.handler, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", status)
	}

	status, body := requestJSON(t, srv.handler, http.MethodGet, "/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from metrics, got %d", status)
	}
	if !strings.Contains(string(body), "honquedoro_http_requests_total") {
		t.Fatal("expected http request counter in metrics output")
	}
}

func setupTestEngine(t *testing.T, authRequired bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	migrationsDir := filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
	if err := db.RunMigrations(database, migrationsDir); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	fixed := clock.NewFixed(testStart)
	application := app.New(database, app.Options{
		JWTSecret:    "test-secret",
		TokenTTL:     24 * time.Hour,
		AuthRequired: authRequired,
		CORSOrigins:  []string{"http://localhost:4200"},
		CORSMaxAge:   time.Hour,
		Cache:        cache.NewMemory(64, time.Minute),
		Clock:        fixed,
		Logger:       zerolog.Nop(),
	})

	return &testServer{handler: application.Engine, app: application, clock: fixed}
}

func startSession(t *testing.T, srv *testServer, sessionType string, minutes int) activeSession {
	t.Helper()
	var started activeSession
	status, body := requestJSON(t, srv.handler, http.MethodPost, "/api/sessions/start", "", map[string]interface{}{
		"type":            sessionType,
		"durationMinutes": minutes,
	})
	decode(t, status, body, &started)
	return started
}

func sessionAction(t *testing.T, srv *testServer, method, prefix string, id int64) activeSession {
	t.Helper()
	var session activeSession
	status, body := requestJSON(t, srv.handler, method, pathWithID(prefix, id), "", nil)
	decode(t, status, body, &session)
	return session
}

func getActive(t *testing.T, srv *testServer, token string) timerState {
	t.Helper()
	var state timerState
	status, body := requestJSON(t, srv.handler, http.MethodGet, "/api/sessions/active", token, nil)
	decode(t, status, body, &state)
	return state
}

func pathWithID(prefix string, id int64) string {
	return prefix + strconvItoa(id)
}

func strconvItoa(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func decode(t *testing.T, status int, body []byte, dst interface{}) {
	t.Helper()
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, string(body))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("unmarshal response: %v: %s", err, string(body))
	}
}

func expectError(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, status, string(body))
	}
	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal error response: %v", err)
	}
	if envelope.Error.Code != wantCode {
		t.Fatalf("expected error code %s, got %s (%s)", wantCode, envelope.Error.Code, envelope.Error.Message)
	}
}

func registerUser(t *testing.T, server http.Handler, email, password string) authResponse {
	t.Helper()
	status, body := requestJSON(t, server, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s failed with status %d: %s", email, status, string(body))
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal register response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token for user %s", email)
	}
	return resp
}

func requestJSON(
	t *testing.T,
	server http.Handler,
	method, path, token string,
	body interface{},
) (int, []byte) {
	t.Helper()

	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		payload = raw
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder.Code, recorder.Body.Bytes()
}
