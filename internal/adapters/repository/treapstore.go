package repository

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/wellmed/internal/domain/types"
	"github.com/okian/wellmed/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then userID ASC (deterministic). "less" means ranks
// earlier, so an in-order walk yields the watchlist from highest risk down.
// Node sizes make rank lookups O(log n).

// scoreScale fixes scores to nine decimal places so equal floats compare equal.
const scoreScale = 1_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAbove returns how many nodes have a strictly higher score.
func countAbove(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit node ids in rank order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// TreapStore implements Store. Users with equal scores share a rank
// (standard competition ranking: 1, 2, 2, 4).
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]types.Profile
	rng  *rand.Rand
}

var _ Store = (*TreapStore)(nil)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewTreapStore constructs an empty risk board.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]types.Profile),
		rng:  newRand(uint64(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert stores p as the user's latest profile in O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, p types.Profile) (types.Profile, bool, error) {
	if p.UserID == "" {
		return types.Profile{}, false, ErrInvalidUserID
	}
	start := time.Now()
	defer func() {
		metrics.RecordBoardUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	ns := toFixedPoint(p.Result.Score)

	s.mu.Lock()
	prev, existed := s.byID[p.UserID]
	if existed {
		s.root = deleteNode(s.root, p.UserID, toFixedPoint(prev.Result.Score))
	}
	p.Rank = 0
	s.byID[p.UserID] = p
	s.root = insert(s.root, p.UserID, ns, s.rng.Uint64())
	count := len(s.byID)
	s.mu.Unlock()

	if !existed {
		metrics.UpdateBoardUsers(count)
	}
	return prev, existed, nil
}

// Get returns the user's profile with its current rank.
func (s *TreapStore) Get(_ context.Context, userID string) (types.Profile, error) {
	start := time.Now()
	defer func() {
		metrics.RecordBoardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[userID]
	if !ok {
		return types.Profile{}, ErrNotFound
	}
	p.Rank = countAbove(s.root, toFixedPoint(p.Result.Score)) + 1
	return p, nil
}

// TopN returns the n highest-risk entries.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordBoardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*node, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, &nodes)

	out := make([]types.Entry, len(nodes))
	for i, nd := range nodes {
		p := s.byID[nd.id]
		rank := i + 1
		if i > 0 && nd.score == nodes[i-1].score {
			rank = out[i-1].Rank
		}
		out[i] = types.Entry{
			Rank:          rank,
			UserID:        nd.id,
			Score:         p.Result.Score,
			CombinedScore: p.Result.CombinedScore,
			RiskLevel:     p.Result.RiskLevel,
			Trend:         p.Trend,
		}
	}
	return out, nil
}

// Count returns the number of users on the board.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
