package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/fsutil"
	"github.com/hydromet/meteosat/pkg/hooks"
	"github.com/spf13/cobra"
)

// NewHooksCmd creates the hooks command with subcommands.
func NewHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hooks",
		Short: "Manage download hooks",
		Long: `Hooks are Tengo scripts named pre-download.tengo and post-download.tengo
in the hooks directory (hooks.dir in the config). They run around every
download; a pre-download hook can cancel a download by setting err.`,
	}

	cmd.AddCommand(newHooksTemplateCmd(), newHooksListCmd())
	return cmd
}

func parseHookType(name string) (hooks.HookType, error) {
	t := hooks.HookType(name)
	if !slices.Contains(hooks.Types, t) {
		return "", hooks.ErrUnsupportedHookType(t)
	}
	return t, nil
}

func newHooksTemplateCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "template TYPE",
		Short: "Print or install a hook template",
		Long:  "Print a template for a pre-download or post-download hook, or write it to the hooks directory with --write",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hookType, err := parseHookType(args[0])
			if err != nil {
				return err
			}
			template := hooks.HookTemplate(hookType)
			if !write {
				fmt.Println(template)
				return nil
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Hooks.Dir == "" {
				return fmt.Errorf("hooks.dir is not configured")
			}
			path := filepath.Join(cfg.Hooks.Dir, string(hookType)+hooks.HookFileExtension)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("hook already exists at %s", path)
			}
			if err := fsutil.EnsureFileDir(path); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(template+"\n"), fsutil.FileModeDefault); err != nil {
				return fmt.Errorf("failed to write hook: %w", err)
			}
			logger.Success("Hook template written", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Write the template to the hooks directory")
	return cmd
}

func newHooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed hooks",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager := hooks.NewHookManager()
			if err := hooks.LoadDir(manager, cfg.Hooks.Dir); err != nil {
				return err
			}
			for _, t := range hooks.Types {
				status := "not installed"
				if manager.HasHook(t) {
					status = filepath.Join(cfg.Hooks.Dir, string(t)+hooks.HookFileExtension)
				}
				fmt.Printf("%s\t%s\n", t, status)
			}
			return nil
		},
	}
}
