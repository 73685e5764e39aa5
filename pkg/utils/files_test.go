package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGetPathInfo(t *testing.T) {
	full, parent, err := GetPathInfo("a/../b/main.sea")
	if err != nil {
		t.Fatalf("GetPathInfo() error = %v", err)
	}
	if !filepath.IsAbs(full) || filepath.Base(full) != "main.sea" {
		t.Errorf("fullPath = %s", full)
	}
	if filepath.Base(parent) != "b" {
		t.Errorf("parentDir = %s", parent)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		input    string
		expected string
	}{
		{input: "~", expected: home},
		{input: "~/.sea/lib", expected: filepath.Join(home, ".sea", "lib")},
		{input: "/usr/lib", expected: "/usr/lib"},
		{input: "rel/~/x", expected: "rel/~/x"},
		{input: "~user/x", expected: "~user/x"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ExpandHome(tt.input)
			if err != nil {
				t.Fatalf("ExpandHome() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExpandHome(%q) = %s, expected %s", tt.input, got, tt.expected)
			}
		})
	}

	lib, err := GlobalLibDir()
	if err != nil || lib != filepath.Join(home, ".sea", "lib") {
		t.Errorf("GlobalLibDir() = %s, %v", lib, err)
	}
}

func TestSplitPathList(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := SplitPathList("src::~/libs:" + string(os.PathSeparator) + "opt")
	if err != nil {
		t.Fatal(err)
	}
	expected := []string{"src", filepath.Join(home, "libs"), string(os.PathSeparator) + "opt"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("SplitPathList() = %v, expected %v", got, expected)
	}
}
