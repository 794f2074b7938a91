/*
Package ports defines the driven ports (interfaces) for the covpipe pipeline.

These interfaces decouple the pipeline from external implementations, allowing
the runner to work with various process launchers, history backends and lock
providers.

# Key Interfaces

  - CommandRunner: Executes one stage command and reports its exit status.
  - RunStore: Responsible for persisting and loading run records.
  - Locker: Provides mutual exclusion over a build directory across runs.
*/
package ports
