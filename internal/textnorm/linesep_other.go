//go:build !windows

package textnorm

const lineSeparator = "\n"
