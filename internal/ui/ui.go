// Package ui provides terminal rendering helpers for CLI output.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// RenderPass renders success markers.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn renders warning markers.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderError renders error text.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderAccent renders emphasized values such as earnings.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderMuted renders secondary detail text.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderTitle renders section headings.
func RenderTitle(s string) string { return titleStyle.Render(s) }
