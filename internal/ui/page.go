package ui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3token/internal/controller"
	"github.com/Mohsinsiddi/w3token/internal/provider"
)

// Page is the interactive token page. Create it before the controller so
// its Observe method can be passed as the controller's observer.
type Page struct {
	deployment string
	provider   string
	program    *tea.Program
}

// NewPage creates a page for the named deployment.
func NewPage(deployment, providerName string) *Page {
	return &Page{deployment: deployment, provider: providerName}
}

// Observe forwards transaction status changes to the running page.
func (p *Page) Observe(action controller.Action, status controller.Status, hash common.Hash) {
	if p.program != nil {
		p.program.Send(statusMsg{action: action, status: status, hash: hash})
	}
}

// Run shows the page until the user quits or ctx is cancelled.
func (p *Page) Run(ctx context.Context, ctrl *controller.Controller) error {
	m := newPageModel(ctx, ctrl, p.deployment, p.provider)
	p.program = tea.NewProgram(m, tea.WithContext(ctx))
	_, err := p.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type statusMsg struct {
	action controller.Action
	status controller.Status
	hash   common.Hash
}

type initDoneMsg struct{ err error }

type connectDoneMsg struct {
	account common.Address
	err     error
}

type refreshDoneMsg struct{ err error }

type actionDoneMsg struct {
	outcome controller.Outcome
	err     error
}

// prompt collects the inputs of one action, one field at a time.
type prompt struct {
	action controller.Action
	fields []string
	values []string
	input  string
}

func (p *prompt) label() string { return p.fields[len(p.values)] }

type pageModel struct {
	ctx  context.Context
	ctrl *controller.Controller
	view PageView

	busy     string
	prompt   *prompt
	pending  map[common.Hash]controller.Action
	quitting bool
}

func newPageModel(ctx context.Context, ctrl *controller.Controller, deployment, providerName string) pageModel {
	return pageModel{
		ctx:  ctx,
		ctrl: ctrl,
		view: PageView{
			HasProvider: ctrl.HasProvider(),
			Provider:    providerName,
			Deployment:  deployment,
			Snapshot:    ctrl.State().Snapshot(),
			Interactive: true,
		},
		busy:    "loading",
		pending: map[common.Hash]controller.Action{},
	}
}

func (m pageModel) Init() tea.Cmd {
	if !m.ctrl.HasProvider() {
		return func() tea.Msg { return initDoneMsg{} }
	}
	return func() tea.Msg {
		return initDoneMsg{err: m.ctrl.Init(m.ctx)}
	}
}

func (m pageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)

	case initDoneMsg:
		m.busy = ""
		m.setErr(msg.err)

	case connectDoneMsg:
		m.busy = ""
		if msg.err == nil {
			m.view.Notice = "connected " + msg.account.Hex()
		}
		m.setErr(msg.err)

	case refreshDoneMsg:
		m.busy = ""
		m.setErr(msg.err)

	case statusMsg:
		switch msg.status {
		case controller.StatusSubmitted:
			m.pending[msg.hash] = msg.action
		case controller.StatusConfirmed, controller.StatusReverted, controller.StatusDropped:
			delete(m.pending, msg.hash)
		}

	case actionDoneMsg:
		m.busy = ""
		out := msg.outcome
		if msg.err == nil {
			m.view.Notice = fmt.Sprintf("%s confirmed in block %s (%s)", out.Action, out.Receipt.BlockNumber, TruncateAddr(out.Hash.Hex()))
		} else {
			m.view.Notice = ""
		}
		if out.Status == controller.StatusSubmitted {
			// Stopped waiting; keep it listed as pending.
			m.pending[out.Hash] = out.Action
		}
		m.setErr(msg.err)
	}

	m.view.Snapshot = m.ctrl.State().Snapshot()
	m.view.Pending = m.pendingList()
	return m, nil
}

func (m pageModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "q" {
		m.quitting = true
		return m, tea.Quit
	}
	if m.busy != "" {
		return m, nil
	}

	switch msg.String() {
	case "c":
		m.busy = "waiting for wallet"
		m.view.Err = ""
		return m, func() tea.Msg {
			account, err := m.ctrl.Connect(m.ctx)
			return connectDoneMsg{account: account, err: err}
		}
	case "r":
		m.busy = "refreshing"
		m.view.Err = ""
		return m, func() tea.Msg {
			return refreshDoneMsg{err: m.ctrl.Refresh(m.ctx)}
		}
	case "m":
		m.prompt = &prompt{action: controller.ActionMint, fields: []string{"Amount to mint"}}
	case "b":
		m.prompt = &prompt{action: controller.ActionBurn, fields: []string{"Amount to burn"}}
	case "t":
		m.prompt = &prompt{action: controller.ActionTransfer, fields: []string{"Recipient address", "Amount to transfer"}}
	}
	return m, nil
}

func (m pageModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	switch msg.Type {
	case tea.KeyEsc:
		m.prompt = nil
	case tea.KeyEnter:
		p.values = append(p.values, strings.TrimSpace(p.input))
		p.input = ""
		if len(p.values) < len(p.fields) {
			return m, nil
		}
		m.prompt = nil
		m.busy = string(p.action)
		m.view.Err = ""
		m.view.Notice = ""
		return m, m.actionCmd(p.action, p.values)
	case tea.KeyBackspace:
		if len(p.input) > 0 {
			r := []rune(p.input)
			p.input = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		p.input += string(msg.Runes)
	}
	return m, nil
}

func (m pageModel) actionCmd(action controller.Action, values []string) tea.Cmd {
	return func() tea.Msg {
		var (
			out controller.Outcome
			err error
		)
		switch action {
		case controller.ActionMint:
			out, err = m.ctrl.Mint(m.ctx, values[0])
		case controller.ActionBurn:
			out, err = m.ctrl.Burn(m.ctx, values[0])
		case controller.ActionTransfer:
			out, err = m.ctrl.Transfer(m.ctx, values[0], values[1])
		}
		return actionDoneMsg{outcome: out, err: err}
	}
}

func (m *pageModel) setErr(err error) {
	switch {
	case err == nil:
		m.view.Err = ""
	case errors.Is(err, provider.ErrProviderUnavailable):
		m.view.HasProvider = false
		m.view.Err = ""
	default:
		m.view.Err = err.Error()
	}
}

func (m pageModel) pendingList() []PendingTx {
	out := make([]PendingTx, 0, len(m.pending))
	for hash, action := range m.pending {
		out = append(out, PendingTx{Action: string(action), Hash: hash.Hex()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

func (m pageModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(RenderPage(m.view))

	if p := m.prompt; p != nil {
		sb.WriteString("\n" + StyleValue.Render(p.label()+": ") + p.input + StyleKey.Render("▌") + "\n")
		sb.WriteString(Meta("enter to confirm · esc to cancel") + "\n")
		return sb.String()
	}
	if m.busy != "" {
		sb.WriteString("\n" + Meta(m.busy+"…") + "\n")
	}

	keys := []string{}
	if m.view.HasProvider && !m.view.Snapshot.Connected {
		keys = append(keys, Key("c")+" connect")
	}
	if m.view.Snapshot.Connected {
		keys = append(keys, Key("r")+" refresh")
	}
	keys = append(keys, Key("q")+" quit")
	sb.WriteString("\n" + strings.Join(keys, "  ") + "\n")
	return sb.String()
}
