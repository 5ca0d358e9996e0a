package telemetry

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type callbackRegistrar func(db *gorm.DB, name string, fn func(*gorm.DB)) error

// gormOperation ties a GORM processor to the SQL verb it runs.
// Row and Raw statements have no fixed verb; it is read from the SQL.
type gormOperation struct {
	name   string
	verb   string
	before callbackRegistrar
	after  callbackRegistrar
}

var gormOperations = []gormOperation{
	{
		name: "create", verb: "INSERT",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Create().Before("gorm:create").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Create().After("gorm:create").Register(n, fn)
		},
	},
	{
		name: "query", verb: "SELECT",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Query().Before("gorm:query").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Query().After("gorm:query").Register(n, fn)
		},
	},
	{
		name: "update", verb: "UPDATE",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Update().Before("gorm:update").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Update().After("gorm:update").Register(n, fn)
		},
	},
	{
		name: "delete", verb: "DELETE",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Delete().Before("gorm:delete").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Delete().After("gorm:delete").Register(n, fn)
		},
	},
	{
		name: "row",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Row().Before("gorm:row").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Row().After("gorm:row").Register(n, fn)
		},
	},
	{
		name: "raw",
		before: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Raw().Before("gorm:raw").Register(n, fn)
		},
		after: func(db *gorm.DB, n string, fn func(*gorm.DB)) error {
			return db.Callback().Raw().After("gorm:raw").Register(n, fn)
		},
	},
}

// registerAroundCallbacks installs hooks named "<prefix>:before_<op>" and
// "<prefix>:after_<op>" around every GORM processor. after is called once per
// processor with its SQL verb, or "" for row and raw statements.
func registerAroundCallbacks(db *gorm.DB, prefix string, before func(*gorm.DB), after func(verb string) func(*gorm.DB)) error {
	for _, op := range gormOperations {
		if before != nil {
			if err := op.before(db, prefix+":before_"+op.name, before); err != nil {
				return fmt.Errorf("failed to register %s before %s: %w", prefix, op.name, err)
			}
		}
		if after != nil {
			if err := op.after(db, prefix+":after_"+op.name, after(op.verb)); err != nil {
				return fmt.Errorf("failed to register %s after %s: %w", prefix, op.name, err)
			}
		}
	}
	return nil
}

// statementVerb returns verb, or the leading keyword of the statement SQL when verb is empty
func statementVerb(db *gorm.DB, verb string) string {
	if verb != "" {
		return verb
	}
	return detectOperationType(db.Statement.SQL.String())
}

func detectOperationType(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	if strings.HasPrefix(sql, "WITH") {
		return "SELECT"
	}
	return "OTHER"
}
