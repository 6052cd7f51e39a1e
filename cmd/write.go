package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/mirror"
	"github.com/itiky/collaborate-mirror/model"
	"github.com/itiky/collaborate-mirror/remote"
)

const FlagPriority = "priority"

// writeFunc issues a single write through the gateway.
type writeFunc func(loc remote.Location, args []string, priority *model.Priority) (*mirror.Completion, error)

// newWriteCmd builds a client command performing one write and waiting for its acknowledgement.
func newWriteCmd(use, short string, args cobra.PositionalArgs, withPriority bool, write writeFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		Run: func(cmd *cobra.Command, args []string) {
			timeout := mustGetDuration(cmd, FlagWriteTimeout)

			var priority *model.Priority
			if withPriority && cmd.Flags().Changed(FlagPriority) {
				p := model.ParsePriority(mustGetString(cmd, FlagPriority))
				priority = &p
			}

			s, err := startSession(cmd)
			if err != nil {
				logrus.Fatalf("session: %v", err)
			}
			defer s.Stop()

			var (
				c        *mirror.Completion
				writeErr error
			)
			s.loop.Sync(func() {
				c, writeErr = write(s.client.Root().Child(args[0]), args[1:], priority)
			})
			if writeErr != nil {
				logrus.Errorf("%s: %v", cmd.Name(), writeErr)
				return
			}

			if err := waitCompletion(c, timeout); err != nil {
				logrus.Errorf("%s: %v", cmd.Name(), err)
				return
			}
			fmt.Println(c.Location().String())
		},
	}
	addClientFlags(cmd)
	cmd.Flags().Duration(FlagWriteTimeout, 5*time.Second, "(optional) write acknowledgement timeout")
	if withPriority {
		cmd.Flags().String(FlagPriority, "", "(optional) child priority (number or string)")
	}

	return cmd
}

// GetSetCmd returns the location set command.
func GetSetCmd() *cobra.Command {
	return newWriteCmd("set [path] [value]", "Replace a location value", cobra.ExactArgs(2), true,
		func(loc remote.Location, args []string, priority *model.Priority) (*mirror.Completion, error) {
			value, err := parseValue(args[0])
			if err != nil {
				return nil, err
			}
			if priority != nil {
				return mirror.SetValueWithPriority(loc, value, *priority)
			}
			return mirror.SetValue(loc, value)
		},
	)
}

// GetPushCmd returns the list append command.
func GetPushCmd() *cobra.Command {
	return newWriteCmd("push [path] [value]", "Append a value under a new time ordered key", cobra.ExactArgs(2), true,
		func(loc remote.Location, args []string, priority *model.Priority) (*mirror.Completion, error) {
			value, err := parseValue(args[0])
			if err != nil {
				return nil, err
			}
			if priority != nil {
				return mirror.PushValueWithPriority(loc, value, *priority)
			}
			return mirror.PushValue(loc, value)
		},
	)
}

// GetUpdateCmd returns the shallow merge command.
func GetUpdateCmd() *cobra.Command {
	return newWriteCmd("update [path] [map]", "Merge children into a location", cobra.ExactArgs(2), false,
		func(loc remote.Location, args []string, _ *model.Priority) (*mirror.Completion, error) {
			value, err := parseValue(args[0])
			if err != nil {
				return nil, err
			}
			partial, ok := value.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%s: must be a map", "value")
			}
			return mirror.UpdateValue(loc, partial)
		},
	)
}

// GetRemoveCmd returns the location remove command.
func GetRemoveCmd() *cobra.Command {
	return newWriteCmd("remove [path]", "Remove a location", cobra.ExactArgs(1), false,
		func(loc remote.Location, _ []string, _ *model.Priority) (*mirror.Completion, error) {
			return mirror.RemoveValue(loc)
		},
	)
}

func init() {
	rootCmd.AddCommand(GetSetCmd(), GetPushCmd(), GetUpdateCmd(), GetRemoveCmd())
}
