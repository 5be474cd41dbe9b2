// Copyright (c) 2026 StudyKit Organization
// SPDX-License-Identifier: Apache-2.0

package extensions

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/studykitio/studykit/config"
)

// CreateDatabaseByCli creates a sql database
// using the given command line arguments as input
func CreateDatabaseByCli(cli *cli.Context, extensionName string) error {
	cfg, err := parseConnectConfig(cli, extensionName)
	if err != nil {
		return handleErr(err)
	}
	database := cli.String(CLIOptDatabase)
	err = doCreateDatabase(cli.Context, cfg, database)
	if err != nil {
		return handleErr(fmt.Errorf("error creating database:%v", err))
	}
	return nil
}

func doCreateDatabase(ctx context.Context, cfg *config.SQL, name string) error {
	cfg.DatabaseName = ""
	conn, err := NewSQLAdminSession(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.CreateDatabase(ctx, name)
}

// SetupSchemaByCli executes the DDL file given on the command line
// against the target database
func SetupSchemaByCli(cli *cli.Context, extensionName string) error {
	cfg, err := parseConnectConfig(cli, extensionName)
	if err != nil {
		return handleErr(err)
	}
	ddlFile := cli.String(CLIOptFile)
	if ddlFile == "" {
		return handleErr(fmt.Errorf("missing " + flag(CLIOptFile) + " argument"))
	}
	ddl, err := os.ReadFile(ddlFile)
	if err != nil {
		return handleErr(fmt.Errorf("error reading schema file:%v", err))
	}
	conn, err := NewSQLAdminSession(cfg)
	if err != nil {
		return handleErr(err)
	}
	defer conn.Close()
	if err := conn.ExecuteSchemaDDL(cli.Context, string(ddl)); err != nil {
		return handleErr(fmt.Errorf("error executing schema DDL:%v", err))
	}
	return nil
}

func parseConnectConfig(cli *cli.Context, extensionName string) (*config.SQL, error) {
	cfg := new(config.SQL)

	host := cli.String(CLIOptEndpoint)
	port := cli.Int(CLIOptPort)
	cfg.ConnectAddr = fmt.Sprintf("%s:%v", host, port)
	cfg.User = cli.String(CLIOptUser)
	cfg.Password = cli.String(CLIOptPassword)
	cfg.DatabaseName = cli.String(CLIOptDatabase)
	cfg.DBExtensionName = extensionName

	if err := ValidateConnectConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateConnectConfig validates params
func ValidateConnectConfig(cfg *config.SQL) error {
	host, _, err := net.SplitHostPort(cfg.ConnectAddr)
	if err != nil {
		return fmt.Errorf("invalid host and port " + cfg.ConnectAddr)
	}
	if len(host) == 0 {
		return fmt.Errorf("missing sql endpoint argument " + flag(CLIOptEndpoint))
	}
	if cfg.DatabaseName == "" {
		return fmt.Errorf("missing " + flag(CLIOptDatabase) + " argument")
	}
	return nil
}

func flag(opt string) string {
	return "(-" + opt + ")"
}

func handleErr(err error) error {
	log.Println(err)
	return err
}
