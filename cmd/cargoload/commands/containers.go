package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/model"
	"github.com/piwi3910/CargoLoad/internal/project"
)

func newContainersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "Manage saved container presets",
	}
	cmd.AddCommand(
		newContainersListCmd(),
		newContainersAddCmd(),
		newContainersRemoveCmd(),
		newContainersImportCmd(),
		newBackupCmd(),
		newRestoreCmd(c),
	)
	return cmd
}

func newContainersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List container presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, _, err := project.LoadOrCreateInventory()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(inv.Containers))
			for _, cp := range inv.Containers {
				rows = append(rows, []string{
					cp.ID,
					cp.Name,
					cp.Size.String(),
					fmt.Sprintf("%.1f", float64(cp.Volume())/1e9),
					fmt.Sprintf("%.0f", cp.MaxPayload),
				})
			}
			return printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "SIZE (MM)", "VOLUME (M3)", "PAYLOAD (KG)"}, rows)
		},
	}
}

func newContainersAddCmd() *cobra.Command {
	var payload float64
	cmd := &cobra.Command{
		Use:     "add <name> <length> <width> <height>",
		Short:   "Add or replace a container preset",
		Example: `  cargoload containers add "Swap body" 7450 2480 2700 --payload 16000`,
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dims [3]int
			for i, arg := range args[1:] {
				n, err := strconv.Atoi(arg)
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid dimension %q", arg)
				}
				dims[i] = n
			}
			inv, path, err := project.LoadOrCreateInventory()
			if err != nil {
				return err
			}
			inv.AddContainer(model.NewContainerPreset(args[0], dims[0], dims[1], dims[2], payload))
			if err := project.SaveInventory(path, inv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("saved container %q", args[0])))
			return nil
		},
	}
	cmd.Flags().Float64Var(&payload, "payload", 0, "max payload in kg")
	return cmd
}

func newContainersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove a container preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, path, err := project.LoadOrCreateInventory()
			if err != nil {
				return err
			}
			id := args[0]
			if cp := inv.FindContainerByName(id); cp != nil {
				id = cp.ID
			}
			if !inv.RemoveContainer(id) {
				return fmt.Errorf("container %q not found", args[0])
			}
			if err := project.SaveInventory(path, inv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("removed container %q", args[0])))
			return nil
		},
	}
}

func newContainersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <inventory.json>",
		Short: "Merge container presets from another inventory file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, path, err := project.LoadOrCreateInventory()
			if err != nil {
				return err
			}
			before := len(inv.Containers)
			if inv, err = project.ImportInventory(args[0], inv); err != nil {
				return err
			}
			if err := project.SaveInventory(path, inv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("imported %d containers", len(inv.Containers)-before)))
			return nil
		},
	}
}

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Export the app config and container inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := project.LoadAppConfig(project.DefaultConfigPath())
			if err != nil {
				return err
			}
			inv, _, err := project.LoadOrCreateInventory()
			if err != nil {
				return err
			}
			if err := project.ExportAllData(args[0], appCfg, inv); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("backup written to "+args[0]))
			return nil
		},
	}
}

func newRestoreCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace the app config and container inventory from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backup, err := project.ImportAllData(args[0])
			if err != nil {
				return err
			}
			if err := project.SaveAppConfig(project.DefaultConfigPath(), backup.Config); err != nil {
				return err
			}
			if err := project.SaveInventory(project.DefaultInventoryPath(), backup.Inventory); err != nil {
				return err
			}
			c.logger.Info("backup restored", "version", backup.Version, "created_at", backup.CreatedAt)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("restored %d containers", len(backup.Inventory.Containers))))
			return nil
		},
	}
}
