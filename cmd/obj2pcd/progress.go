package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/harmonica"
)

const progressWidth = 40

// ProgressBar draws sampling progress on one terminal line. The displayed
// fraction chases the real one through a critically damped spring so bursts
// of callbacks render as smooth motion.
type ProgressBar struct {
	out      io.Writer
	spring   harmonica.Spring
	position float64
	velocity float64
	last     string
}

// NewProgressBar creates a bar writing to out, stepped at fps updates.
func NewProgressBar(out io.Writer, fps int) *ProgressBar {
	return &ProgressBar{
		out: out,
		// Frequency 6.0 settles within a handful of updates, damping 1.0 = no overshoot
		spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
	}
}

// Update moves the bar toward done/total and redraws it if it changed.
// Completion snaps to 100% and ends the line.
func (p *ProgressBar) Update(done, total int) {
	target := 1.0
	if total > 0 {
		target = float64(done) / float64(total)
	}

	if done >= total {
		p.position, p.velocity = 1, 0
	} else {
		pos, vel := p.spring.Update(p.position, p.velocity, target)
		// The bar never moves backwards or past the real progress.
		p.position = min(max(pos, p.position), target)
		p.velocity = max(vel, 0)
	}

	line := p.render(done, total)
	if line == p.last {
		return
	}
	p.last = line

	fmt.Fprintf(p.out, "\r%s", line)
	if done >= total {
		fmt.Fprintln(p.out)
	}
}

// Fraction returns the currently displayed fraction.
func (p *ProgressBar) Fraction() float64 {
	return p.position
}

func (p *ProgressBar) render(done, total int) string {
	filled := int(p.position * progressWidth)
	return fmt.Sprintf("[%s%s] %3.0f%% %d/%d",
		strings.Repeat("#", filled),
		strings.Repeat(".", progressWidth-filled),
		p.position*100, done, total)
}
