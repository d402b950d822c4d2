package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements_CommentHeaderKeepsStatement(t *testing.T) {
	sql := `-- 脚本头
-- 第二行注释

CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

CREATE TABLE IF NOT EXISTS plans (
    plan_id TEXT PRIMARY KEY -- 行尾整行注释不在此列
);

-- 默认套餐
INSERT INTO plans (plan_id) VALUES ('p1');
`
	statements := splitStatements(sql)
	require.Len(t, statements, 3)
	assert.Equal(t, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`, statements[0])
	assert.True(t, strings.HasPrefix(statements[1], "CREATE TABLE IF NOT EXISTS plans"))
	assert.Equal(t, "INSERT INTO plans (plan_id) VALUES ('p1')", statements[2])
}

func TestSplitStatements_OnlyCommentsAndBlank(t *testing.T) {
	assert.Empty(t, splitStatements("-- nothing here\n\n  -- still nothing\n"))
}

// 真实 schema 文件里带注释头的语句一条都不能丢
func TestSplitStatements_SchemaFile(t *testing.T) {
	content, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(t, err)

	statements := splitStatements(string(content))
	require.NotEmpty(t, statements)

	var hasExtension, hasPlanSeed bool
	for _, stmt := range statements {
		if strings.HasPrefix(stmt, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`) {
			hasExtension = true
		}
		if strings.HasPrefix(stmt, "INSERT INTO plans") {
			hasPlanSeed = true
		}
		assert.False(t, strings.HasPrefix(stmt, "--"), "statement starts with a comment: %q", stmt)
	}
	assert.True(t, hasExtension, "uuid-ossp extension statement missing")
	assert.True(t, hasPlanSeed, "default plans seed missing")
}
