package diag

import (
	"bytes"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestList(t *testing.T) {
	var l List
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Addf(ImportFailure, "pkg.broken", "", "syntax error")
		}()
	}
	wg.Wait()
	l.Addf(NameCollision, "pkg", "pkg.Foo", "shadowed by %s", "pkg.foo")

	assert.Equal(t, 11, l.Len())
	assert.Equal(t, 10, l.Count(ImportFailure))
	assert.Equal(t, 1, l.Count(NameCollision))
	assert.Equal(t, "name-collision: pkg.Foo: shadowed by pkg.foo", l.Items()[10].String())
}

func TestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var l List
	l.Addf(ImportFailure, "pkg.a", "", "boom")
	l.Addf(UnresolvedReference, "pkg.b", "pkg.b.f", "Thing")
	l.Log(logger)

	require.Len(t, hook.AllEntries(), 2)
	first := hook.AllEntries()[0]
	assert.Equal(t, logrus.ErrorLevel, first.Level)
	assert.Equal(t, "boom", first.Message)
	assert.Equal(t, "pkg.a", first.Data["module"])
	assert.Equal(t, "import-failure", first.Data["kind"])
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestWriteReport(t *testing.T) {
	var l List
	l.Add(Diagnostic{Kind: OutputPathCollision, Module: "pkg.B", Path: "pkg/b.md", Message: "collides with pkg.b"})
	l.Addf(DocstringDegradation, "pkg", "pkg.f", "unrecognised Args entry")

	var buf bytes.Buffer
	require.NoError(t, l.WriteReport(&buf))

	var got Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[Kind]int{OutputPathCollision: 1, DocstringDegradation: 1}, got.Summary)
	assert.Equal(t, l.Items(), got.Diagnostics)
}
