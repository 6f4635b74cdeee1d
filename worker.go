package main

import "runtime"

// pairRange assigns a contiguous slice of the candidate-pair list to one
// worker, together with the collision buffer it writes into. Buffers are
// per-worker, so no synchronization happens inside the narrow-phase loop.
type pairRange struct {
	buffer int
	start  int
	end    int
}

// startWorkers launches the fixed narrow-phase worker pool. Workers live for
// the engine's lifetime and block on the condition variable between ticks.
func (e *Engine) startWorkers() {
	for i := 0; i < e.workerCount; i++ {
		e.workerWG.Add(1)
		go e.narrowPhaseWorkerLoop()
	}
}

// narrowPhaseWorkerLoop pulls pair ranges off the queue until shutdown. A
// worker only ever suspends here, waiting for work; the queue is drained
// before the loop exits so close never strands a submitted range.
func (e *Engine) narrowPhaseWorkerLoop() {
	defer e.workerWG.Done()

	e.workerMu.Lock()
	for {
		for len(e.workerQueue) == 0 && !e.workerShutdown {
			e.workerCond.Wait()
		}
		if e.workerShutdown && len(e.workerQueue) == 0 {
			e.workerMu.Unlock()
			return
		}

		task := e.workerQueue[len(e.workerQueue)-1]
		e.workerQueue = e.workerQueue[:len(e.workerQueue)-1]
		e.workerActive++
		e.workerMu.Unlock()

		e.checkPairRange(task)

		e.workerMu.Lock()
		e.workerActive--
	}
}

// checkPairRange narrow-tests one range of candidate pairs into the range's
// own collision buffer.
func (e *Engine) checkPairRange(task pairRange) {
	buffer := &e.collisions[task.buffer]
	for _, pair := range e.pairs[task.start:task.end] {
		e.checkCollision(pair[0], pair[1], buffer)
	}
}

// dispatchNarrowPhase splits the candidate pairs into one contiguous range per
// worker, submits them, and busy-waits with yields until every range has been
// processed. Store columns and the pair list are read-only for the duration,
// so workers run lock-free.
func (e *Engine) dispatchNarrowPhase() {
	totalPairs := len(e.pairs)
	pairsPerWorker := (totalPairs + e.workerCount - 1) / e.workerCount

	e.workerMu.Lock()
	for worker := 0; worker < e.workerCount; worker++ {
		start := worker * pairsPerWorker
		end := start + pairsPerWorker
		if end > totalPairs {
			end = totalPairs
		}
		if start >= end {
			break
		}
		e.workerQueue = append(e.workerQueue, pairRange{buffer: worker, start: start, end: end})
	}
	e.workerMu.Unlock()
	e.workerCond.Broadcast()

	for {
		e.workerMu.Lock()
		done := len(e.workerQueue) == 0 && e.workerActive == 0
		e.workerMu.Unlock()
		if done {
			return
		}
		runtime.Gosched()
	}
}
