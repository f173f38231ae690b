package explorer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Interact runs the main loop until the user quits or the input ends
func (e *Explorer) Interact(in io.Reader, out io.Writer) {
	fmt.Fprint(out, e.header())
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, e.prompt())

		optionS, err := readLine(reader)
		if err == io.EOF {
			return
		} else if err != nil {
			fmt.Fprintln(out, "Invalid input! Try again")
			continue
		}
		option, err := strconv.Atoi(optionS)
		if err != nil {
			fmt.Fprintln(out, "Invalid input! Try again")
			continue
		}
		fmt.Fprintln(out, "------------------------------------")
		switch option {
		case 1:
			fmt.Fprint(out, e.getInitialStates())
		case 2:
			fmt.Fprint(out, "Enter the state key: ")
			stateK, err := readLine(reader)
			if err != nil {
				return
			}
			fmt.Fprint(out, e.getQValues(stateK))
		case 3:
			fmt.Fprint(out, "Enter the state key: ")
			stateK, err := readLine(reader)
			if err != nil {
				return
			}
			fmt.Fprint(out, e.getFullState(stateK))
		case 4:
			fmt.Fprintf(out, "Enter trace number (1-%d): ", len(e.Traces))
			traceNoS, err := readLine(reader)
			if err != nil {
				return
			}
			traceNo, err := strconv.Atoi(traceNoS)
			if err != nil {
				fmt.Fprintln(out, "Invalid input! Not a number. Try again")
				continue
			}
			if traceNo < 1 || traceNo > len(e.Traces) {
				fmt.Fprintf(out, "Invalid input! Should be between (1-%d). Try again\n", len(e.Traces))
				continue
			}
			if !e.interactTrace(traceNo-1, reader, out) {
				return
			}
		case 5:
			fmt.Fprintln(out, "Quitting! Thank you")
			return
		default:
			fmt.Fprintln(out, "Wrong choice! Try again!")
		}
	}
}

func (e *Explorer) getFullState(stateKey string) string {
	count, ok := e.StateMap[stateKey]
	if !ok {
		return "No such state\n"
	}
	return fmt.Sprintf("State Key: %s\nState:\n%s\nOccurrences: %d\n", stateKey, readableState(stateKey), count)
}

func (e *Explorer) getQValues(state string) string {
	values, ok := e.QTable.GetAll(state)
	if !ok {
		return "No such state in the q table\n"
	}
	if len(values) == 0 {
		return "No values in the q table for the corresponding state\n"
	}
	actions := make([]string, 0, len(values))
	for a := range values {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	out := "Q values are:\n"
	for _, a := range actions {
		out += fmt.Sprintf("%s: %f\n", a, values[a])
	}
	return out
}

func (e *Explorer) getInitialStates() string {
	initialStates := make(map[string]int)
	for _, t := range e.Traces {
		if first, ok := t.Get(0); ok {
			initialStates[first.State]++
		}
	}
	keys := make([]string, 0, len(initialStates))
	for k := range initialStates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := "Initial States are:\n"
	for _, k := range keys {
		out += fmt.Sprintf("%s: %d\n", k, initialStates[k])
	}
	return out
}

func (e *Explorer) header() string {
	return `
Welcome to the q table explorer!
	`
}

func (e *Explorer) prompt() string {
	return `
------------------------------------
Select one of the following options:
1. Show initial state
2. Show QValues
3. Show full state
4. Explore a trace
5. Quit
Enter your choice: `
}

func (e *Explorer) tracePrompt() string {
	return `
---------------------------------------------
Step(s) QValues(d) Prev(p) Last(l) Quit(q): `
}

// interactTrace walks through one trace, false when the input ended
func (e *Explorer) interactTrace(traceNo int, reader *bufio.Reader, out io.Writer) bool {
	stepCount := 0
	trace := e.Traces[traceNo]
	if trace.Len() == 0 {
		fmt.Fprintln(out, "Empty trace!")
		return true
	}
	fmt.Fprintf(out, "Episode %d, reward %.4f\n", trace.Episode, trace.Reward)
	fmt.Fprintln(out, "---------------------------------------------")
	for {
		step, _ := trace.Get(stepCount)
		fmt.Fprintf(out, "For step %d\nState:\n%s\nAction: %s\nReward: %.4f\nNextState:\n%s\n",
			stepCount+1, readableState(step.State), step.Action, step.Reward, readableState(step.NextState))
		fmt.Fprint(out, e.tracePrompt())
		option, err := readLine(reader)
		if err != nil {
			return false
		}
		fmt.Fprintln(out, "---------------------------------------------")
		switch option {
		case "s":
			if stepCount == trace.Len()-1 {
				fmt.Fprintln(out, "No more steps!")
				continue
			}
			stepCount += 1
		case "d":
			fmt.Fprint(out, e.getQValues(step.State))
		case "p":
			if stepCount == 0 {
				fmt.Fprintln(out, "No more steps!")
				continue
			}
			stepCount -= 1
		case "l":
			stepCount = trace.Len() - 1
		case "q":
			return true
		default:
			fmt.Fprintln(out, "Invalid option! Try again.")
		}
	}
}
