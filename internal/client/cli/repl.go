package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// runREPL reads one command per line and runs it through a fresh command
// tree. Failures are printed as a single line and do not stop the loop; it
// returns on "exit", "quit" or end of input.
func runREPL(ctx context.Context, a *App, reader *bufio.Reader, out io.Writer) error {
	for {
		fmt.Fprintf(out, "gophwalk (%s)> ", a.session.Current())

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		root := newRootCommand(a)
		root.SetArgs(parts)
		cmdErr := root.ExecuteContext(ctx)
		switch {
		case errors.Is(cmdErr, errExit):
			fmt.Fprintln(out, "Bye!")
			return nil
		case cmdErr != nil:
			fmt.Fprintln(out, userMessage(cmdErr))
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}
