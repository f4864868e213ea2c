package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogue(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	names := make([]string, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"commons-logging", "log4j", "log4j2", "slf4j", "java-util-logging"}, names)
}

func TestMatch(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	cases := []struct {
		text string
		want string
	}{
		{"import org.apache.commons.logging.Log;", "commons-logging"},
		{"import org.apache.commons.logging.LogFactory;", "commons-logging"},
		{"org.slf4j.LoggerFactory", "slf4j"},
		{"import org.apache.log4j.Logger;", "log4j"},
		{"import java.util.logging.Logger;", "java-util-logging"},
		{"import java.util.List;", ""},
		{"import static org.junit.Assert.*;", ""},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			t.Parallel()
			p := c.Match(tc.text)
			if tc.want == "" {
				assert.Nil(t, p)
				return
			}
			require.NotNil(t, p)
			assert.Equal(t, tc.want, p.Name)
		})
	}
}

func TestProfileMethods(t *testing.T) {
	t.Parallel()

	c, err := Default()
	require.NoError(t, err)

	commons := c.Match("org.apache.commons.logging.Log")
	require.NotNil(t, commons)
	assert.True(t, commons.IsChecker("isDebugEnabled"))
	assert.False(t, commons.IsChecker("debug"))
	assert.True(t, commons.IsEmitting("fatal"))
	assert.True(t, commons.IsLoggerType("Log"))
	assert.True(t, commons.IsLoggerType("org.apache.commons.logging.Log"))
	assert.False(t, commons.IsLoggerType("Logger"))
	assert.True(t, commons.IsFactoryCall("LogFactory.getLog(Foo.class)"))
	assert.Equal(t, "debug", commons.Level("debug"))

	jul := c.Match("java.util.logging.Logger")
	require.NotNil(t, jul)
	assert.Equal(t, "warn", jul.Level("warning"))
	assert.Equal(t, "trace", jul.Level("finest"))
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty list": "profiles: []\n",
		"no emitting methods": `profiles:
  - name: broken
    logger_imports: [a.b.Log]
    factory_name: LogFactory
`,
		"unknown level": `profiles:
  - name: broken
    logger_imports: [a.b.Log]
    factory_name: LogFactory
    emitting_methods: [shout]
    levels:
      shout: loud
`,
		"duplicate names": `profiles:
  - name: twin
    logger_imports: [a.b.Log]
    factory_name: LogFactory
    emitting_methods: [info]
  - name: twin
    logger_imports: [c.d.Log]
    factory_name: LogFactory
    emitting_methods: [info]
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Load([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestImportName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "org.slf4j.Logger", ImportName("import org.slf4j.Logger;"))
	assert.Equal(t, "com.acme.Consts.*", ImportName("import static com.acme.Consts.*;"))
	assert.Equal(t, "a.b.C", ImportName("a.b.C"))
}
