package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/john-wilkinson/pym/pkg/install"
	"github.com/john-wilkinson/pym/pkg/pipeline"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var (
		flags resolveFlags
		save  bool
	)

	cmd := &cobra.Command{
		Use:     "install [specifier...]",
		Aliases: []string{"i"},
		Short:   "Install dependencies into pym_packages",
		Long: `Install the dependencies listed in pym.json, or the given specifiers, into
the project's pym_packages directory.

Specifiers name a package on the index or a git repository:

  tornado                       latest release
  tornado@4.5.2                 exact version
  tornado@>=4,<5                version range
  https://github.com/acme/widgets.git#v1.2.0
  github.com/acme/widgets       default branch

Packages already installed at the resolved version are left alone.`,
		Example: `  pym install
  pym install tornado@4.5.2 --save
  pym install github.com/acme/widgets#main -j 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args, flags, save)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&save, "save", false, "record the given specifiers in pym.json")

	return cmd
}

func (c *CLI) runInstall(ctx context.Context, args []string, flags resolveFlags, save bool) error {
	if save && len(args) == 0 {
		return fmt.Errorf("--save needs at least one specifier")
	}

	runner, err := c.newRunner(ctx, flags)
	if err != nil {
		return err
	}
	defer runner.Close()
	defer func() {
		if err := runner.Cleanup(c.dir); err != nil {
			c.Logger.Warn("could not remove staging area", "err", err)
		}
	}()

	res, err := c.resolve(ctx, runner, args)
	if err != nil {
		return err
	}
	printDiagnostics(res.Diagnostics)

	prog := newProgress(c.Logger)
	report, err := runner.Install(ctx, c.dir, res)
	if report != nil {
		printReport(report)
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Installed %d packages", report.Count(install.Installed)))

	if err := checkOutcome(res, report); err != nil {
		if save {
			printWarning("pym.json not updated")
		}
		return err
	}
	if save {
		for _, raw := range args {
			spec, err := runner.RecordDependency(c.dir, raw)
			if err != nil {
				return err
			}
			printDetail("saved %s to pym.json", spec.Text())
		}
	}
	return nil
}

// resolve runs resolution behind a spinner. With no args the project
// manifest is resolved; otherwise only the given specifiers.
func (c *CLI) resolve(ctx context.Context, runner *pipeline.Runner, args []string) (*pipeline.Resolution, error) {
	spinner := newSpinner(ctx, "Resolving dependencies...")
	spinner.Start()

	var (
		res *pipeline.Resolution
		err error
	)
	if len(args) > 0 {
		res, err = runner.ResolveSpecifiers(ctx, c.dir, args)
	} else {
		res, err = runner.Resolve(ctx, c.dir)
	}
	if err != nil {
		if spinner.Cancelled() {
			spinner.StopWithError("Resolution cancelled")
		} else {
			spinner.StopWithError("Resolution failed")
		}
		return nil, err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Resolved %d packages", len(res.Graph.Packages())))
	return res, nil
}

// checkOutcome turns fatal diagnostics and failed installs into an error so
// the process exits non-zero. Warnings alone do not fail the run.
func checkOutcome(res *pipeline.Resolution, report *install.Report) error {
	if fatal := res.Diagnostics.Fatal(); len(fatal) > 0 {
		return fmt.Errorf("%d %s could not be resolved", len(fatal), plural(len(fatal), "dependency", "dependencies"))
	}
	if report != nil && report.Failed() {
		n := report.Count(install.Failed)
		return fmt.Errorf("%d %s failed to install", n, plural(n, "package", "packages"))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// uninstallCommand creates the uninstall command.
func (c *CLI) uninstallCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:     "uninstall <name>...",
		Aliases: []string{"remove", "rm"},
		Short:   "Remove installed packages",
		Long: `Remove packages from pym_packages. With --save the packages are also
dropped from the dependency list in pym.json. Packages they depended on
are left installed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), resolveFlags{noCache: true})
			if err != nil {
				return err
			}
			defer runner.Close()

			removed, err := runner.Forget(cmd.Context(), c.dir, args, save)
			gone := make(map[string]bool, len(removed))
			for _, key := range removed {
				gone[key] = true
			}
			for _, name := range args {
				key := specifier.NormalizeName(name)
				if gone[key] {
					printSuccess("removed %s", StyleHighlight.Render(key))
				} else if err == nil {
					printInfo("%s is not installed", key)
				}
			}
			if err != nil {
				return err
			}
			if save {
				printDetail("updated pym.json")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "also remove the dependencies from pym.json")

	return cmd
}
