package layer

import (
	"fmt"
	"strings"

	"github.com/keyforge/dispatch/internal/layout"
)

// LED control actions are renumbered between firmware generations.
var legacyLEDRemap = []struct {
	match string
	to    string
}{
	{"ledControl(0,15)", "ledControl( 3, 15, 0 )"},
	{"ledControl(1,15)", "ledControl( 4, 15, 0 )"},
	{"ledControl(3,0)", "ledControl( 5, 0, 0)"},
}

// renderAction converts a key assignment into its KLL result expression.
// The second return value is true when the statement must be commented out.
func renderAction(v string, legacy bool) (string, bool) {
	switch {
	case strings.HasPrefix(v, "#:"):
		if legacy && strings.Contains(v, "ledControl") {
			m := strings.ReplaceAll(v, " ", "")
			for _, r := range legacyLEDRemap {
				if strings.Contains(m, r.match) {
					return r.to, false
				}
			}
			return v, true
		}
		if legacy && strings.Contains(v, "animation_control") {
			return v, true
		}
		return v[2:], false
	case strings.HasPrefix(v, "CONS:"):
		return `CONS"` + v[len("CONS:"):] + `"`, false
	case strings.HasPrefix(v, "SYS:"):
		return `SYS"` + v[len("SYS:"):] + `"`, false
	default:
		return `U"` + v + `"`, false
	}
}

func renderOverrides(overrides []override, legacy bool) string {
	lines := make([]string, len(overrides))
	for i, o := range overrides {
		s, commented := renderAction(o.value, legacy)
		prefix := ""
		if commented {
			prefix = "#"
		}
		lines[i] = fmt.Sprintf(`%sU"%s" : %s;`, prefix, o.base, s)
	}
	return strings.Join(lines, "\n")
}

func renderTriggers(groups []triggerGroup) string {
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		for _, a := range g.actions {
			lines = append(lines, fmt.Sprintf(`U"%s" :+ %s;`, g.base, a))
		}
	}
	return strings.Join(lines, "\n")
}

func renderHeader(h layout.Header) string {
	fields := h.Fields()
	lines := make([]string, len(fields))
	for i, f := range fields {
		lines[i] = fmt.Sprintf(`%s = "%s";`, f[0], f[1])
	}
	return strings.Join(lines, "\n")
}

func renderDefines(defines []layout.Define) string {
	lines := make([]string, len(defines))
	for i, d := range defines {
		lines[i] = fmt.Sprintf(`%s = "%s";`, d.Name, d.Value)
	}
	return strings.Join(lines, "\n")
}

// renderAnimations emits animation blocks in document order. An animation
// whose frames are all comments is replaced by a skip marker and reported.
func renderAnimations(anims layout.Animations) (string, []string) {
	var ignored []string
	blocks := make([]string, len(anims))
	for i, a := range anims {
		var b strings.Builder
		fmt.Fprintf(&b, "A[%s] <= %s;\n", a.Name, a.Settings)
		frame := 1
		for _, f := range a.Frames {
			if strings.HasPrefix(f, "#") {
				b.WriteString(f + "\n")
				continue
			}
			fmt.Fprintf(&b, "A[%s, %d] <= %s;\n", a.Name, frame, f)
			frame++
		}
		if frame == 1 {
			ignored = append(ignored, a.Name)
			blocks[i] = fmt.Sprintf("### %s is empty, skipping", a.Name)
			continue
		}
		blocks[i] = b.String()
	}
	return strings.Join(blocks, "\n"), ignored
}
