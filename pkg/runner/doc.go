/*
Package runner implements the covpipe Pipeline Runner.

It executes the five stages of a C/C++ coverage run strictly in order, each one a
synchronous external tool invocation, and halts on the first non-zero exit status:

	configure  cmake <project> -G Ninja      (in a freshly recreated build directory)
	build      ninja
	test       ctest
	coverage   <base>/fastcov.py --gcov gcov-9 --branch-coverage --exclude ... --lcov -o <file>
	report     genhtml --branch-coverage <file> -o <dir>

The compiler selection (CC/CXX) is attached to every child command rather than set on
the host process. Processes are launched through a ports.CommandRunner, so tests can
substitute stubs that record invocation order.

# Key Components

  - Config: What to run and where (tools, flags, paths).
  - BuildPlan: Turns a Config and a base directory into ordered stage commands.
  - Runner: Executes a plan, fires lifecycle hooks, persists the run record.

# Usage

	r := runner.NewRunner(runner.DefaultConfig(),
		runner.WithLogger(logger),
		runner.WithStore(file.New("")),
	)

	record, err := r.Run(ctx)
	if err != nil {
		os.Exit(domain.ExitCodeOf(err))
	}
	fmt.Println(record.ReportIndex)
*/
package runner
