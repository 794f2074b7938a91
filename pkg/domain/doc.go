/*
Package domain contains the core domain models for the covpipe pipeline.

It defines the fundamental entities of a build/test/coverage run: the ordered stages,
the commands they execute, the toolchain injected into every child process, and the
record produced once the run halts. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - StageKind: One of the five ordered stages (configure, build, test, coverage, report).
  - Command: A fully resolved external invocation (argv, working directory, environment).
  - Toolchain: The C and C++ compiler selection passed to child processes.
  - StageResult: The outcome of a single stage invocation.
  - RunRecord: The snapshot of a whole run, suitable for persistence and reporting.
*/
package domain
