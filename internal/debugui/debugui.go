// Package debugui is a full-screen step debugger for avr.CPU, grounded on
// hejops-gone's cpu.Debug/model (bubbletea model wrapping a CPU, rendering
// registers/flags/memory each Update) and replacing the teacher's
// line-oriented n/r/b REPL with the same three commands bound to keys.
package debugui

import (
	"fmt"
	"strconv"
	"strings"

	"avrvm/avr"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type model struct {
	cpu *avr.CPU

	running    bool
	breakpoint map[uint16]struct{}
	breakInput string
	enteringBP bool

	lastErr error
	halted  bool
}

func initialModel(cpu *avr.CPU) model {
	return model{cpu: cpu, breakpoint: map[uint16]struct{}{}}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.enteringBP {
		switch keyMsg.String() {
		case "enter":
			if n, err := strconv.ParseUint(strings.TrimSpace(m.breakInput), 0, 16); err == nil {
				addr := uint16(n)
				if _, ok := m.breakpoint[addr]; ok {
					delete(m.breakpoint, addr)
				} else {
					m.breakpoint[addr] = struct{}{}
				}
			}
			m.breakInput = ""
			m.enteringBP = false
		case "esc":
			m.breakInput = ""
			m.enteringBP = false
		case "backspace":
			if len(m.breakInput) > 0 {
				m.breakInput = m.breakInput[:len(m.breakInput)-1]
			}
		default:
			m.breakInput += keyMsg.String()
		}
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "n": // next: single-step
		m.step()

	case "r": // run: free-run until breakpoint, halt, or fault
		m.running = true
		for m.running && !m.halted && m.lastErr == nil {
			m.step()
			if _, hit := m.breakpoint[m.cpu.PC]; hit {
				m.running = false
			}
		}

	case "b": // break <addr>: start collecting a breakpoint address
		m.enteringBP = true
	}

	return m, nil
}

func (m *model) step() {
	if m.halted || m.lastErr != nil {
		return
	}
	running, err := m.cpu.Step()
	if err != nil {
		m.lastErr = err
		return
	}
	if !running {
		m.halted = true
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	faultStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m model) flagsLine() string {
	sreg := m.cpu.Bus.Flags()
	names := "ITHSVNZC"
	var b strings.Builder
	for i := 7; i >= 0; i-- {
		if sreg&(1<<uint(i)) != 0 {
			b.WriteByte(names[7-i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func (m model) registersView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("registers"))
	b.WriteByte('\n')
	for row := 0; row < 8; row++ {
		for col := 0; col < 4; col++ {
			idx := uint8(row*4 + col)
			fmt.Fprintf(&b, "r%-2d=%02x ", idx, m.cpu.Bus.Reg(idx))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m model) statusView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("status"))
	fmt.Fprintf(&b, "\npc=%#04x sp=%#04x sreg=%s\n", m.cpu.PC, m.cpu.Bus.SP(), m.flagsLine())
	fmt.Fprintf(&b, "sleeping=%v halted=%v jit=n/a\n", m.cpu.Sleeping, m.halted)
	if m.lastErr != nil {
		b.WriteString(faultStyle.Render(m.lastErr.Error()))
		b.WriteByte('\n')
	}
	return b.String()
}

func (m model) disassemblyView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("disassembly"))
	b.WriteByte('\n')
	pc := m.cpu.PC
	for i := -2; i <= 6; i++ {
		addr := int(pc) + i
		if addr < 0 {
			continue
		}
		instr := m.cpu.Bus.Instruction(uint16(addr))
		marker := "  "
		if addr == int(pc) {
			marker = "->"
		}
		if _, bp := m.breakpoint[uint16(addr)]; bp {
			marker = "* " + marker
		}
		fmt.Fprintf(&b, "%s %#04x: %s\n", marker, addr, instr)
	}
	return b.String()
}

func (m model) breakpointsView() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("breakpoints"))
	b.WriteByte('\n')
	for addr := range m.breakpoint {
		fmt.Fprintf(&b, "%#04x\n", addr)
	}
	if m.enteringBP {
		fmt.Fprintf(&b, "break> %s_\n", m.breakInput)
	}
	return b.String()
}

func (m model) View() string {
	left := lipgloss.JoinVertical(lipgloss.Left, m.disassemblyView(), m.breakpointsView())
	right := lipgloss.JoinVertical(lipgloss.Left, m.registersView(), m.statusView())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)
	help := "\nn: step   r: run to breakpoint   b: toggle breakpoint   q: quit\n"
	return body + help
}

// Run starts the interactive debugger over an already-loaded CPU.
func Run(cpu *avr.CPU) error {
	_, err := tea.NewProgram(initialModel(cpu)).Run()
	return err
}
