package specs

import (
	"strings"
)

type printer struct {
	b     strings.Builder
	depth int
}

func (p *printer) line(parts ...string) {
	p.b.WriteString(strings.Repeat("  ", p.depth))
	for _, s := range parts {
		p.b.WriteString(s)
	}
	p.b.WriteByte('\n')
}

// Pprint renders the stack as an indented tree, outermost layer first
func Pprint(stack Stack) string {
	p := &printer{}
	for _, w := range stack.Wrappers {
		p.line(w.FullName())
		p.depth++
		for _, k := range w.Kwargs.Keys() {
			p.line(k, ": ", w.Kwargs[k].String())
		}
	}
	e := stack.Env
	p.line("env ", e.ID)
	p.depth++
	p.line("entry_point: ", e.EntryPoint)
	if e.MaxEpisodeSteps != nil {
		p.line("max_episode_steps: ", Int(int64(*e.MaxEpisodeSteps)).String())
	}
	if e.RewardThreshold != nil {
		p.line("reward_threshold: ", Float(*e.RewardThreshold).String())
	}
	p.line("nondeterministic: ", Bool(e.Nondeterministic).String())
	p.line("order_enforce: ", Bool(e.OrderEnforce).String())
	p.line("autoreset: ", Bool(e.Autoreset).String())
	if len(e.Kwargs) > 0 {
		p.line("kwargs:")
		p.depth++
		for _, k := range e.Kwargs.Keys() {
			p.line(k, ": ", e.Kwargs[k].String())
		}
	}
	return p.b.String()
}

// PprintText pretty prints serialized text. Callables are only printed by
// reference, so they are accepted here.
func PprintText(text string) (string, error) {
	stack, err := Deserialize(text, AllowUnsafe())
	if err != nil {
		return "", err
	}
	return Pprint(stack), nil
}
