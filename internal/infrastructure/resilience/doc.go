/*
Package resilience provides a circuit breaker guarding lifecycle
dispatch to client processes.

# Overview

Pause/resume round trips to a client process can fail repeatedly when
the process is wedged but not yet reported dead. The breaker tracks
consecutive dispatch failures per process and, once tripped, fails
dispatch immediately so the orchestrator falls back to the local
"process not attached" path instead of burning a timeout on every call.

# States

  - Closed: dispatch flows normally, failures are counted
  - Open: dispatch fails fast with ErrCircuitOpen
  - HalfOpen: one probe dispatch is allowed; success closes the breaker

# Usage

	br := resilience.New("pid-42", resilience.DispatchSettings())
	err := br.Do(func() error {
		return client.ScheduleLifecycleCallback(token, kind)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// resolve the transition locally
	}
*/
package resilience
