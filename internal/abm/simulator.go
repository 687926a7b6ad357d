package abm

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"
)

// Simulator generates ABM sample paths. It holds no per-request state; a
// single Generate call performs all work synchronously and leaves nothing
// behind.
type Simulator struct {
	workers int
}

// NewSimulator creates a simulator that distributes paths across the given
// number of workers. workers <= 0 uses the number of CPUs.
func NewSimulator(workers int) *Simulator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Simulator{workers: workers}
}

// Generate produces PathCount independent paths for the request.
//
// Validation failures return an InvalidParameterError and no partial output.
// Per-path numeric overflows abort only the affected path and are collected
// in Result.Failures next to the paths that did succeed.
//
// When req.Seed is set the output is bit-for-bit reproducible regardless of
// worker count, because each path draws from its own generator seeded from
// (seed, path index).
func (s *Simulator) Generate(req Request) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	root := time.Now().UnixNano()
	if req.Seed != nil {
		root = *req.Seed
	}

	dt := req.Grid.Dt()
	// sqrt(dt) is computed once per grid, not per step, so every path sees
	// the identical increment scale.
	sqrtDt := math.Sqrt(dt)

	type outcome struct {
		path Path
		err  *NumericOverflowError
	}
	outcomes := make([]outcome, req.PathCount)

	workers := s.workers
	if workers > req.PathCount {
		workers = req.PathCount
	}

	// Paths are embarrassingly parallel: workers pull indices from a channel
	// and write results into their own slot, so no synchronization is needed
	// beyond the final join.
	indices := make(chan int)
	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for idx := range indices {
				path, simErr := simulatePath(req, idx, root, dt, sqrtDt)
				outcomes[idx] = outcome{path: path, err: simErr}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < req.PathCount; i++ {
		indices <- i
	}
	close(indices)
	for w := 0; w < workers; w++ {
		<-done
	}

	result := &Result{Paths: make([]Path, 0, req.PathCount)}
	for _, out := range outcomes {
		if out.err != nil {
			result.Failures = append(result.Failures, out.err)
			continue
		}
		result.Paths = append(result.Paths, out.path)
	}
	sort.Slice(result.Paths, func(i, j int) bool {
		return result.Paths[i].Index < result.Paths[j].Index
	})
	return result, nil
}

// simulatePath runs the Euler-Maruyama recursion for one path:
//
//	S[i] = S[i-1] + mu*dt + sigma*sqrt(dt)*Z,  Z ~ N(0,1)
//
// Values are never clamped: ABM permits negative prices by definition and
// that behavior is intentional, not a defect to be fixed.
func simulatePath(req Request, index int, rootSeed int64, dt, sqrtDt float64) (Path, *NumericOverflowError) {
	// math/rand is sufficient here; Monte Carlo simulation does not require
	// crypto-grade randomness.
	//nolint:gosec // G404
	rng := rand.New(rand.NewSource(pathSeed(rootSeed, index)))

	points := make([]Point, req.Grid.Steps+1)
	points[0] = Point{Time: req.Grid.Start, Value: req.InitialValue}

	value := req.InitialValue
	for i := 1; i <= req.Grid.Steps; i++ {
		z := rng.NormFloat64()
		value += req.Parameters.Drift*dt + req.Parameters.Volatility*sqrtDt*z

		// Abort immediately on a non-finite value rather than keep computing
		// on corrupted state.
		if math.IsInf(value, 0) || math.IsNaN(value) {
			return Path{}, &NumericOverflowError{PathIndex: index, Step: i}
		}

		points[i] = Point{Time: req.Grid.Start + float64(i)*dt, Value: value}
	}

	return Path{Index: index, Points: points}, nil
}
