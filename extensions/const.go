// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

const (
	// CLIOptEndpoint is the cli option for endpoint
	CLIOptEndpoint = "endpoint"
	// CLIOptPort is the cli option for port
	CLIOptPort = "port"
	// CLIOptUser is the cli option for user
	CLIOptUser = "user"
	// CLIOptPassword is the cli option for password
	CLIOptPassword = "password"
	CLIOptDatabase = "database"
	// CLIOptFile is the cli option for the DDL file to execute
	CLIOptFile = "file"
)
