package client

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// LoadTestOptions controls a load test run
type LoadTestOptions struct {
	ServerURL  string
	Users      int
	Iterations int
}

// taskStats accumulates per-task outcomes across all simulated users
type taskStats struct {
	requests int64
	errors   int64
	total    time.Duration
	max      time.Duration
}

// LoadTest simulates concurrent browser sessions against a running
// server. Each user registers a fresh account, logs in, and then mixes
// page loads, shortens and redirects according to fixed weights.
type LoadTest struct {
	opts LoadTestOptions

	mu    sync.Mutex
	stats map[string]*taskStats
}

// NewLoadTest creates a load test runner
func NewLoadTest(opts LoadTestOptions) *LoadTest {
	if opts.Users <= 0 {
		opts.Users = 1
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 10
	}
	return &LoadTest{
		opts:  opts,
		stats: make(map[string]*taskStats),
	}
}

// task is one weighted action a simulated user can take
type task struct {
	name   string
	weight int
	run    func(ctx context.Context, u *user) error
}

// user is the per-goroutine session state: its client plus the short
// codes it has created so far.
type user struct {
	client *Client
	codes  []string
	rng    *rand.Rand
}

func (u *user) randomCode() (string, bool) {
	if len(u.codes) == 0 {
		return "", false
	}
	return u.codes[u.rng.Intn(len(u.codes))], true
}

func tasks() []task {
	return []task{
		{name: "shorten", weight: 3, run: func(ctx context.Context, u *user) error {
			target := fmt.Sprintf("https://example.com/page/%d", u.rng.Intn(1_000_000))
			code, err := u.client.Shorten(ctx, target)
			if err != nil {
				return err
			}
			u.codes = append(u.codes, code)
			return nil
		}},
		{name: "redirect", weight: 4, run: func(ctx context.Context, u *user) error {
			code, ok := u.randomCode()
			if !ok {
				return nil
			}
			_, err := u.client.Redirect(ctx, code)
			return err
		}},
		{name: "stats", weight: 2, run: func(ctx context.Context, u *user) error {
			return u.client.Stats(ctx)
		}},
		{name: "homepage", weight: 2, run: func(ctx context.Context, u *user) error {
			return u.client.Homepage(ctx)
		}},
		{name: "download_qr", weight: 1, run: func(ctx context.Context, u *user) error {
			code, ok := u.randomCode()
			if !ok {
				return nil
			}
			_, err := u.client.DownloadQR(ctx, code)
			return err
		}},
		{name: "health", weight: 1, run: func(ctx context.Context, u *user) error {
			return u.client.Health(ctx)
		}},
		{name: "metrics", weight: 1, run: func(ctx context.Context, u *user) error {
			return u.client.Metrics(ctx)
		}},
	}
}

// weightedPicks expands the task list so that a uniform pick respects
// the weights.
func weightedPicks(ts []task) []task {
	var picks []task
	for _, t := range ts {
		for i := 0; i < t.weight; i++ {
			picks = append(picks, t)
		}
	}
	return picks
}

// Run executes the load test and prints a summary. It returns an error
// only when no user could even start a session.
func (lt *LoadTest) Run(ctx context.Context) error {
	log.Printf("Starting load test: %d users, %d iterations each against %s",
		lt.opts.Users, lt.opts.Iterations, lt.opts.ServerURL)

	started := time.Now()
	var wg sync.WaitGroup
	failures := make(chan error, lt.opts.Users)

	for i := 0; i < lt.opts.Users; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := lt.runUser(ctx, id); err != nil {
				failures <- err
			}
		}(i)
	}
	wg.Wait()
	close(failures)

	startupFailures := 0
	for err := range failures {
		startupFailures++
		log.Printf("[ERROR] User session failed to start: %v", err)
	}
	if startupFailures == lt.opts.Users {
		return fmt.Errorf("all %d user sessions failed to start", lt.opts.Users)
	}

	lt.printSummary(time.Since(started))
	return nil
}

func (lt *LoadTest) runUser(ctx context.Context, id int) error {
	c, err := NewClient(lt.opts.ServerURL)
	if err != nil {
		return err
	}

	username := fmt.Sprintf("loadtest-%d-%d", time.Now().UnixNano(), id)
	if err := c.Register(ctx, username, "loadtest-password"); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := c.Login(ctx, username, "loadtest-password"); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	u := &user{
		client: c,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
	}
	picks := weightedPicks(tasks())

	for i := 0; i < lt.opts.Iterations; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		t := picks[u.rng.Intn(len(picks))]
		begin := time.Now()
		err := t.run(ctx, u)
		lt.record(t.name, time.Since(begin), err)
	}
	return nil
}

func (lt *LoadTest) record(name string, elapsed time.Duration, err error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	s, ok := lt.stats[name]
	if !ok {
		s = &taskStats{}
		lt.stats[name] = s
	}
	s.requests++
	s.total += elapsed
	if elapsed > s.max {
		s.max = elapsed
	}
	if err != nil {
		s.errors++
	}
}

func (lt *LoadTest) printSummary(elapsed time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	names := make([]string, 0, len(lt.stats))
	var requests, errors int64
	for name, s := range lt.stats {
		names = append(names, name)
		requests += s.requests
		errors += s.errors
	}
	sort.Strings(names)

	fmt.Printf("\nLoad test finished in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Total requests: %d, errors: %d\n\n", requests, errors)
	fmt.Printf("%-12s %10s %8s %12s %12s\n", "task", "requests", "errors", "avg", "max")
	for _, name := range names {
		s := lt.stats[name]
		avg := time.Duration(0)
		if s.requests > 0 {
			avg = s.total / time.Duration(s.requests)
		}
		fmt.Printf("%-12s %10d %8d %12s %12s\n",
			name, s.requests, s.errors, avg.Round(time.Microsecond), s.max.Round(time.Microsecond))
	}
}
