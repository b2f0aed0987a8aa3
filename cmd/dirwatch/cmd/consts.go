// SPDX-FileCopyrightText: 2025 Chen Linxuan <me@black-desk.cn>
//
// SPDX-License-Identifier: MIT

package cmd

const (
	CheckDocumentString = `
Go to check the documentation
https://pkg.go.dev/github.com/black-desk/dirwatch
for some help.
`
	DirWatchCfgPath = "/etc/dirwatch/config.yaml"
)
