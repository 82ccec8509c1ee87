package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/wellmed/internal/adapters/http/api"
	"github.com/okian/wellmed/internal/adapters/mq/queue"
	"github.com/okian/wellmed/internal/adapters/repository"
	service "github.com/okian/wellmed/internal/app"
	"github.com/okian/wellmed/internal/domain/burnout"
	"github.com/okian/wellmed/internal/domain/model"
	"github.com/okian/wellmed/internal/domain/types"
	"github.com/okian/wellmed/pkg/logger"
	"github.com/okian/wellmed/pkg/metrics"
)

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type fakeDeps struct {
	mu         sync.Mutex
	seen       map[string]bool
	enqueued   []model.Submission
	enqueueErr error
	profiles   map[string]types.Profile
	top        []types.Entry
	topLimit   int
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{seen: map[string]bool{}, profiles: map[string]types.Profile{}}
}

func (f *fakeDeps) SeenAndRecord(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[id] {
		return true
	}
	f.seen[id] = true
	return false
}

func (f *fakeDeps) Unrecord(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, id)
}

func (f *fakeDeps) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.seen))
}

func (f *fakeDeps) Enqueue(_ context.Context, s model.Submission) error { //nolint:gocritic // test fake
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, s)
	return nil
}

func (f *fakeDeps) Profile(_ context.Context, userID string) (types.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return types.Profile{}, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeDeps) TopN(_ context.Context, n int) ([]types.Entry, error) {
	f.topLimit = n
	if n > len(f.top) {
		return f.top, nil
	}
	return f.top[:n], nil
}

type fakeStats map[string]any

func (s fakeStats) GetStats() map[string]any { return s }

func newMux(deps *fakeDeps, opts ...api.ServerOption) *http.ServeMux {
	opts = append([]api.ServerOption{
		api.WithClock(func() time.Time { return fixedNow }),
		api.WithIDGenerator(func() string { return "generated-id" }),
	}, opts...)
	srv := api.NewServer(deps, fakeStats{"started": true}, opts...)
	mux := http.NewServeMux()
	srv.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(newFakeDeps())

		Convey("Then /healthz serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then /stats serves the provider's JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/v1/risk", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRiskEndpoint(t *testing.T) {
	Convey("Given the risk endpoint", t, func() {
		mux := newMux(newFakeDeps())

		Convey("When only an MBI snapshot is posted", func() {
			w := do(mux, http.MethodPost, "/v1/risk", `{"mbiAssessment":{"EE":30,"DP":12,"PA":30}}`)

			Convey("Then neutral mood and micro defaults are applied", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["combinedScore"], ShouldEqual, "4.8")
				So(body["riskLevel"], ShouldEqual, "Medium")
				So(body["color"], ShouldEqual, burnout.ColorMedium)
				So(body["icon"], ShouldEqual, burnout.IconMedium)
				So(body["insight"], ShouldEqual, "Your burnout risk is medium (4.8/10).")
				breakdown := body["breakdown"].(map[string]any)
				So(breakdown["moodScore"], ShouldEqual, 4.0)
				So(breakdown["microScore"], ShouldEqual, 6.0)
			})
		})

		Convey("When a full high-risk input is posted", func() {
			w := do(mux, http.MethodPost, "/v1/risk", `{
				"moodAverage": 1,
				"microAssessment": {"fatigue":5,"stress":5,"satisfaction":1,"sleep":1},
				"mbiAssessment": {"EE":54,"DP":30,"PA":0}
			}`)

			Convey("Then the level is High with four recommendations", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["riskLevel"], ShouldEqual, "High")
				So(body["combinedScore"], ShouldEqual, "10.0")
				So(body["recommendations"], ShouldHaveLength, 4)
			})
		})

		Convey("When mood entries are posted instead of an average", func() {
			w := do(mux, http.MethodPost, "/v1/risk", `{
				"moodEntries": [{"mood":"Excellent"},{"mood":"Excellent"}],
				"mbiAssessment": {"EE":30,"DP":12,"PA":30}
			}`)

			Convey("Then the average of the entries drives the mood score", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				breakdown := decode(w)["breakdown"].(map[string]any)
				So(breakdown["moodScore"], ShouldEqual, 0.0)
			})
		})

		Convey("When inputs are out of range or missing", func() {
			outOfRange := do(mux, http.MethodPost, "/v1/risk", `{"mbiAssessment":{"EE":60,"DP":0,"PA":0}}`)
			missing := do(mux, http.MethodPost, "/v1/risk", `{"moodAverage":3}`)
			badMood := do(mux, http.MethodPost, "/v1/risk", `{"moodAverage":9,"mbiAssessment":{"EE":1,"DP":1,"PA":1}}`)
			unknownField := do(mux, http.MethodPost, "/v1/risk", `{"mbi":{"EE":1,"DP":1,"PA":1}}`)

			Convey("Then each is a bad request", func() {
				So(outOfRange.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(outOfRange)["code"], ShouldEqual, "bad_request")
				So(decode(outOfRange)["message"], ShouldContainSubstring, "EE")
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				So(badMood.Code, ShouldEqual, http.StatusBadRequest)
				So(unknownField.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestTrendEndpoint(t *testing.T) {
	Convey("Given the trend endpoint", t, func() {
		mux := newMux(newFakeDeps())

		Convey("When exhaustion rises sharply", func() {
			w := do(mux, http.MethodPost, "/v1/trend", `{"current":{"EE":50,"DP":25,"PA":5},"previous":{"EE":10,"DP":5,"PA":40}}`)

			Convey("Then the trend is worsening", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["trend"], ShouldEqual, "worsening")
				So(body["icon"], ShouldEqual, burnout.IconTrendWorsening)
			})
		})

		Convey("When both snapshots are identical", func() {
			w := do(mux, http.MethodPost, "/v1/trend", `{"current":{"EE":20,"DP":10,"PA":20},"previous":{"EE":20,"DP":10,"PA":20},"moodAverage":2}`)

			Convey("Then the trend is stable", func() {
				So(decode(w)["trend"], ShouldEqual, "stable")
			})
		})

		Convey("When a snapshot is missing or invalid", func() {
			So(do(mux, http.MethodPost, "/v1/trend", `{"current":{"EE":1,"DP":1,"PA":1}}`).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodPost, "/v1/trend", `{"current":{"EE":-1,"DP":1,"PA":1},"previous":{"EE":1,"DP":1,"PA":1}}`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestStreakEndpoint(t *testing.T) {
	Convey("Given the streak endpoint with a fixed clock", t, func() {
		mux := newMux(newFakeDeps())

		Convey("When today and yesterday are active", func() {
			w := do(mux, http.MethodPost, "/v1/streak", `{"activities":[
				{"date":"2026-03-10T08:00:00Z","hasActivity":true},
				{"date":"2026-03-09T08:00:00Z","hasActivity":true},
				{"date":"2026-03-01T08:00:00Z","hasActivity":true}
			]}`)

			Convey("Then the current streak is two", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["current"], ShouldEqual, 2.0)
				So(body["longest"], ShouldEqual, 2.0)
				So(body["lastActivityDate"], ShouldEqual, "2026-03-10T08:00:00Z")
				goal := body["goal"].(map[string]any)
				So(goal["target"], ShouldEqual, 7.0)
			})
		})

		Convey("When no activities are posted", func() {
			w := do(mux, http.MethodPost, "/v1/streak", `{"activities":[]}`)

			Convey("Then the streak is zero with no last date", func() {
				body := decode(w)
				So(body["current"], ShouldEqual, 0.0)
				So(body, ShouldNotContainKey, "lastActivityDate")
			})
		})
	})
}

func TestSubmissionEndpoint(t *testing.T) {
	Convey("Given the submission endpoint", t, func() {
		deps := newFakeDeps()
		mux := newMux(deps)

		Convey("When a valid MBI submission arrives without an id", func() {
			w := do(mux, http.MethodPost, "/v1/submissions", `{"user_id":"u1","kind":"MBI","mbi":{"EE":10,"DP":5,"PA":40}}`)

			Convey("Then it is accepted with a generated id and the current time", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode(w)["submission_id"], ShouldEqual, "generated-id")
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].Kind, ShouldEqual, model.KindMBI)
				So(deps.enqueued[0].TS.Equal(fixedNow), ShouldBeTrue)
			})
		})

		Convey("When the same submission id is replayed", func() {
			body := `{"submission_id":"s-1","user_id":"u1","kind":"mood","mood":"Good"}`
			first := do(mux, http.MethodPost, "/v1/submissions", body)
			second := do(mux, http.MethodPost, "/v1/submissions", body)

			Convey("Then the replay is reported as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["status"], ShouldEqual, "duplicate")
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the payload does not match its kind", func() {
			w := do(mux, http.MethodPost, "/v1/submissions", `{"user_id":"u1","kind":"mood","mood":"Sleepy"}`)

			Convey("Then it is rejected before dedupe", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = queue.ErrFull
			w := do(mux, http.MethodPost, "/v1/submissions", `{"submission_id":"s-2","user_id":"u1","kind":"activity","activity":"stretching"}`)

			Convey("Then the client sees backpressure and may retry", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
				So(deps.seen, ShouldNotContainKey, "s-2")
			})
		})

		Convey("When the queue is closed", func() {
			deps.enqueueErr = queue.ErrClosed
			w := do(mux, http.MethodPost, "/v1/submissions", `{"submission_id":"s-3","user_id":"u1","kind":"activity","activity":"box_breathing"}`)

			Convey("Then the service is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(deps.seen, ShouldNotContainKey, "s-3")
			})
		})
	})
}

// duplicateCount reads the duplicate submission counter from the metrics registry.
func duplicateCount() float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if strings.HasSuffix(f.GetName(), "submissions_duplicate_total") {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestSubmissionReplayCountedOnce(t *testing.T) {
	Convey("Given the API backed by a running service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Nop()), service.WithWorkerCount(1), service.WithQueueSize(8))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(ctx, mux)
		body := `{"submission_id":"replay-1","user_id":"u1","kind":"mood","mood":"Good"}`

		Convey("When the same submission is posted twice", func() {
			before := duplicateCount()
			So(do(mux, http.MethodPost, "/v1/submissions", body).Code, ShouldEqual, http.StatusAccepted)
			So(do(mux, http.MethodPost, "/v1/submissions", body).Code, ShouldEqual, http.StatusOK)

			Convey("Then one duplicate is counted", func() {
				So(duplicateCount()-before, ShouldEqual, 1.0)
			})
		})
	})
}

func TestUserRiskAndWatchlist(t *testing.T) {
	Convey("Given a stored profile and a watchlist", t, func() {
		deps := newFakeDeps()
		deps.profiles["u1"] = types.Profile{UserID: "u1", Rank: 1, Result: burnout.Result{CombinedScore: "7.6", RiskLevel: burnout.RiskHigh}}
		for i, id := range []string{"u1", "u2", "u3"} {
			deps.top = append(deps.top, types.Entry{Rank: i + 1, UserID: id})
		}
		mux := newMux(deps, api.WithMaxWatchlist(2))

		Convey("Then the profile is served by user id", func() {
			w := do(mux, http.MethodGet, "/v1/users/u1/risk", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["user_id"], ShouldEqual, "u1")
			So(body["result"].(map[string]any)["riskLevel"], ShouldEqual, "High")
		})

		Convey("Then unknown users and malformed paths are not found", func() {
			So(do(mux, http.MethodGet, "/v1/users/nobody/risk", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/v1/users/u1", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/v1/users/%20/risk", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/v1/users/a/b/risk", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then an empty path segment is redirected by the mux", func() {
			w := do(mux, http.MethodGet, "/v1/users//risk", "")
			So(w.Code, ShouldEqual, http.StatusMovedPermanently)
			So(w.Header().Get("Location"), ShouldEqual, "/v1/users/risk")
		})

		Convey("Then the watchlist defaults to the capped limit", func() {
			w := do(mux, http.MethodGet, "/v1/watchlist", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.topLimit, ShouldEqual, 2)
		})

		Convey("Then watchlist limits outside the allowed range are rejected", func() {
			So(do(mux, http.MethodGet, "/v1/watchlist?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/v1/watchlist?limit=3", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/v1/watchlist?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/v1/watchlist?limit=1", "").Code, ShouldEqual, http.StatusOK)
		})
	})
}

func TestBearerAuth(t *testing.T) {
	Convey("Given a server protected by an authenticator", t, func() {
		auth, err := api.NewAuthenticator("test-secret")
		So(err, ShouldBeNil)
		deps := newFakeDeps()
		deps.profiles["u1"] = types.Profile{UserID: "u1"}
		mux := newMux(deps, api.WithAuthenticator(auth))

		bearer := func(uid, role string) string {
			tok, err := auth.SignToken(uid, role, time.Hour)
			So(err, ShouldBeNil)
			return "Bearer " + tok
		}

		Convey("Then requests without a token are unauthorized", func() {
			w := do(mux, http.MethodGet, "/v1/users/u1/risk", "")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Then tokens signed with another key are rejected", func() {
			other, _ := api.NewAuthenticator("other-secret")
			tok, _ := other.SignToken("u1", api.RoleUser, time.Hour)
			w := do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", "Bearer "+tok)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Then malformed and expired tokens are rejected", func() {
			w := do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", bearer("u1", api.RoleUser)[:7]+"x")
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			tok, _ := auth.SignToken("u1", api.RoleUser, -time.Minute)
			So(do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", "Bearer "+tok).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Then users may read only their own profile", func() {
			So(do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", bearer("u1", api.RoleUser)).Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", bearer("u2", api.RoleUser)).Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Then users may not submit for someone else", func() {
			body := `{"user_id":"u1","kind":"mood","mood":"Okay"}`
			So(do(mux, http.MethodPost, "/v1/submissions", body, "Authorization", bearer("u2", api.RoleUser)).Code, ShouldEqual, http.StatusForbidden)
			So(deps.Size(), ShouldEqual, 0)
		})

		Convey("Then only clinicians see the watchlist", func() {
			So(do(mux, http.MethodGet, "/v1/watchlist", "", "Authorization", bearer("u1", api.RoleUser)).Code, ShouldEqual, http.StatusForbidden)
			So(do(mux, http.MethodGet, "/v1/watchlist", "", "Authorization", bearer("doc", api.RoleClinician)).Code, ShouldEqual, http.StatusOK)
			So(do(mux, http.MethodGet, "/v1/users/u1/risk", "", "Authorization", bearer("doc", api.RoleClinician)).Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then operational routes stay open", func() {
			So(do(mux, http.MethodGet, "/stats", "").Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("An empty secret cannot build an authenticator", t, func() {
		_, err := api.NewAuthenticator("  ")
		So(err, ShouldEqual, api.ErrEmptySecret)
	})
}
