package registry

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vkir/internal/decl"
)

func fixturePath() string {
	return filepath.Join("..", "..", "testdata", "registry", "mini.xml")
}

func TestReadFileFixture(t *testing.T) {
	reg, err := ReadFile(fixturePath())
	require.NoError(t, err)

	names := make([]string, 0, len(reg.Structs))
	for _, s := range reg.Structs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"VkDeviceCreateInfo",
		"VkDeviceQueueCreateInfo",
		"VkPhysicalDeviceFeatures2",
		"VkPhysicalDeviceFeatures2KHR",
		"VkPhysicalDeviceVulkan11Features",
		"VkExtent2D",
	}, names, "only struct/union types, in document order")

	cmdNames := make([]string, 0, len(reg.Commands))
	for _, c := range reg.Commands {
		cmdNames = append(cmdNames, c.Name)
	}
	assert.Equal(t, []string{
		"vkCreateInstance",
		"vkEnumeratePhysicalDevices",
		"vkCreateDevice",
		"vkDestroyDevice",
		"vkGetDeviceQueue",
		"vkGetDeviceQueueAlias",
		"vkCmdSetBlendConstants",
	}, cmdNames)
}

func TestReadPreservesTokens(t *testing.T) {
	reg, err := ReadFile(fixturePath())
	require.NoError(t, err)

	dci := reg.Structs[0]
	require.Len(t, dci.Members, 4)

	pNext := dci.Members[1]
	assert.Equal(t, "const ", pNext.Text)
	assert.Equal(t, []decl.Attr{{Key: "optional", Value: "true"}}, pNext.Attrs)
	require.Len(t, pNext.Elems, 2)
	assert.Equal(t, "type", pNext.Elems[0].Tag)
	assert.Equal(t, "void", pNext.Elems[0].Text)
	assert.Equal(t, "*     ", pNext.Elems[0].Tail)
	assert.Equal(t, "pNext", pNext.Elems[1].Text)

	blend := reg.Commands[6]
	require.Len(t, blend.Params, 2, "implicitexternsyncparams children are not params")
	assert.Equal(t, "[4]", blend.Params[1].Elems[1].Tail)
	assert.Equal(t, []decl.Attr{
		{Key: "queues", Value: "graphics"},
		{Key: "renderpass", Value: "both"},
		{Key: "cmdbufferlevel", Value: "primary,secondary"},
	}, blend.Attrs, "attribute order is preserved")
}

func TestReadProto(t *testing.T) {
	reg, err := ReadFile(fixturePath())
	require.NoError(t, err)

	create := reg.Commands[0]
	require.Len(t, create.Proto, 2)
	assert.Equal(t, decl.Elem{Tag: "type", Text: "VkResult", Tail: " "}, create.Proto[0])
	assert.Equal(t, "vkCreateInstance", create.Proto[1].Text)

	alias := reg.Commands[5]
	assert.Empty(t, alias.Proto)
	v, ok := decl.Lookup(alias.Attrs, "alias")
	assert.True(t, ok)
	assert.Equal(t, "vkGetDeviceQueue", v)
}

func TestReadRejectsNonRegistry(t *testing.T) {
	_, err := Read(strings.NewReader(`<types></types>`))
	assert.ErrorIs(t, err, ErrNotRegistry)
}

func TestReadMalformedXML(t *testing.T) {
	_, err := Read(strings.NewReader(`<registry><types>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse registry xml")
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open registry")
}
