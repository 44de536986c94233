package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/manifest"
)

// initCommand creates the init command.
func (c *CLI) initCommand() *cobra.Command {
	var (
		fields manifest.Manifest
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create pym.json in the project directory",
		Long: `Create a pym.json manifest and its source directory. On a terminal the
fields are prompted for; pass --yes to accept the defaults and flags
without prompting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest.Exists(c.dir) {
				return errors.New(errors.ErrCodeInvalidInput, "%s already exists in %s", manifest.FileName, c.dir)
			}

			m := manifest.New(projectName(c.dir))
			flags := cmd.Flags()
			if flags.Changed("name") {
				m.Name = fields.Name
			}
			if flags.Changed("version") {
				m.Version = fields.Version
			}
			if flags.Changed("description") {
				m.Description = fields.Description
			}
			if flags.Changed("src") {
				m.Src = fields.Src
			}
			if flags.Changed("license") {
				m.License = fields.License
			}

			if !yes && isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
				final, err := tea.NewProgram(NewInitModel(m), tea.WithContext(cmd.Context())).Run()
				if err != nil {
					return err
				}
				model := final.(InitModel)
				if model.Cancelled || !model.Done {
					printInfo("Cancelled")
					return nil
				}
				model.Apply(m)
			}

			return c.writeManifest(m)
		},
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "package name (default: directory name)")
	cmd.Flags().StringVar(&fields.Version, "version", manifest.DefaultVersion, "package version")
	cmd.Flags().StringVar(&fields.Description, "description", "", "one-line description")
	cmd.Flags().StringVar(&fields.Src, "src", manifest.DefaultSrc, "source directory exposed as the import root")
	cmd.Flags().StringVar(&fields.License, "license", manifest.DefaultLicense, "license identifier")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not prompt")

	return cmd
}

// writeManifest validates m and writes it with its source directory.
func (c *CLI) writeManifest(m *manifest.Manifest) error {
	if err := errors.ValidatePythonPackageName(m.Name); err != nil {
		return err
	}
	if m.Src != "" {
		if err := errors.ValidatePath(m.Src); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Join(c.dir, m.Src), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeFilesystem, err, "create %s", m.Src)
		}
	}
	if err := manifest.Save(c.dir, m); err != nil {
		return err
	}

	printSuccess("Created %s for %s", manifest.FileName, StyleHighlight.Render(m.Name))
	printFile(manifest.Path(c.dir))
	fmt.Fprintln(stdout)
	printNextStep("Add a dependency", "pym install <package> --save")
	return nil
}

// projectName returns the base name of dir, used as the default package name.
func projectName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return appName
	}
	return filepath.Base(abs)
}
