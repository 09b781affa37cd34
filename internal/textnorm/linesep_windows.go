//go:build windows

package textnorm

const lineSeparator = "\r\n"
