// Command linegrep searches input lines for fixed substrings, as a
// small demonstration of building a filter on the cliframe framework.
package main

import (
	"fmt"
	"strings"

	"github.com/eugenenazirov/cliframe"
)

func main() {
	matches := 0

	app := cliframe.New("linegrep", "1.0.0",
		cliframe.WithDescription("Search input lines for substring patterns."),
		cliframe.WithSetup(func(app *cliframe.Application) {
			app.Settings.AddStringList([]string{"pattern", "e"},
				"search for substring PATTERN; may be repeated", nil,
				cliframe.Metavar("PATTERN"))
			app.Settings.AddBoolean([]string{"count", "c"},
				"print only the number of matching lines", false)
		}),
		cliframe.WithArgsHandler(func(app *cliframe.Application, args []string) error {
			if err := app.ProcessInputs(args); err != nil {
				return err
			}
			if app.Settings.Bool("count") {
				fmt.Fprintf(app.Output(), "%d\n", matches)
			}
			return nil
		}),
		cliframe.WithInputLineHandler(func(app *cliframe.Application, name, line string) error {
			for _, pattern := range app.Settings.Strings("pattern") {
				if strings.Contains(line, pattern) {
					matches++
					if !app.Settings.Bool("count") {
						fmt.Fprintf(app.Output(), "%s:%d: %s\n", name, app.Lineno(), line)
					}
					break
				}
			}
			return nil
		}),
	)

	app.Main()
}
