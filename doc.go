/*
Package covpipe builds, tests and measures the coverage of a CMake C/C++ project.

A run is a fixed five-stage pipeline executed from a base directory:

  - Configure: cmake in a freshly recreated build directory, with CC/CXX selecting the toolchain.
  - Build: ninja.
  - Test: ctest.
  - Coverage: fastcov collects gcov data into an lcov tracefile.
  - Report: genhtml renders the tracefile as HTML.

Stages run one at a time. The first stage that exits non-zero stops the run and its exit
status becomes the run's exit status; later stages never start.

# Usage

	cfg := covpipe.DefaultConfig()
	cfg.Toolchain.CC, cfg.Toolchain.CXX = "clang", "clang++"

	p := covpipe.New(cfg, runner.WithBaseDir("/src/myproject"))
	record, err := p.Run(ctx)
	if err != nil {
		os.Exit(domain.ExitCodeOf(err))
	}
	fmt.Println(record.ReportIndex)

The covpipe command wraps the same pipeline with a YAML configuration file, run history,
build-directory locking, metrics export and a watch mode.
*/
package covpipe
