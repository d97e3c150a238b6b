package app

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/otakit/ota-agent/internal/agent/slot"
	"github.com/otakit/ota-agent/pkg/options"
)

func newSlotsCommand() *cobra.Command {
	device := options.NewDeviceOptions()

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the firmware slots and the boot selection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storage, err := slot.NewFileStorage(device.StorageDir)
			if err != nil {
				return err
			}
			infos, err := storage.Slots()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), slotTable(infos))
			return err
		},
	}
	device.AddFlags(cmd.Flags())
	return cmd
}

func slotTable(infos []slot.Info) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80
	table.AddRow("SLOT", "ACTIVE", "NEXT BOOT", "SIZE", "SHA256", "COMMITTED")
	for _, i := range infos {
		committed := "-"
		if !i.CommittedAt.IsZero() {
			committed = i.CommittedAt.Local().Format(time.RFC3339)
		}
		sum := i.SHA256
		if sum == "" {
			sum = "-"
		}
		table.AddRow(i.Name, mark(i.Active), mark(i.Next), i.Size, sum, committed)
	}
	return table
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
