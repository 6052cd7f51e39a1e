package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/mirror"
	"github.com/itiky/collaborate-mirror/object"
)

const FlagOneWay = "one-way"

// GetBindCmd returns the interactive binding command: every stdin line is set on the bound property.
func GetBindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bind [path]",
		Short: "Bind a local property to a location, stdin lines set the property",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			path := args[0]
			oneWay, err := cmd.Flags().GetBool(FlagOneWay)
			if err != nil {
				logrus.Fatalf("%s flag: %v", FlagOneWay, err)
			}

			s, err := startSession(cmd)
			if err != nil {
				logrus.Fatalf("session: %v", err)
			}
			defer s.Stop()

			obj := object.New(nil)
			var (
				binding *mirror.Binding
				cancel  func()
			)
			s.loop.Sync(func() {
				bind := mirror.Bind
				if oneWay {
					bind = mirror.BindOneWay
				}
				if binding, err = bind(obj, "value", s.client.Root().Child(path), s.loop); err != nil {
					return
				}
				cancel = obj.Observe("value", func() {
					fmt.Printf("%s = %s", binding.String(), formatValue(obj.Get("value")))
				})
			})
			if err != nil {
				logrus.Fatalf("bind: %v", err)
			}

			go func() {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					value, err := parseValue(scanner.Text())
					if err != nil {
						logrus.Warnf("input: %v", err)
						continue
					}
					s.loop.Post(func() { obj.Set("value", value) })
				}
			}()

			waitSignal()

			s.loop.Sync(func() {
				cancel()
				binding.Disconnect(obj)
			})
		},
	}
	addClientFlags(cmd)
	cmd.Flags().Bool(FlagOneWay, false, "(optional) only follow the remote value")

	return cmd
}

func init() {
	rootCmd.AddCommand(GetBindCmd())
}
