package integrations_test

import (
	"fmt"

	"github.com/john-wilkinson/pym/pkg/integrations"
)

func ExampleNormalizePkgName() {
	// Package names are normalized to lowercase with hyphens
	fmt.Println(integrations.NormalizePkgName("Tornado"))
	fmt.Println(integrations.NormalizePkgName("flask_login"))
	fmt.Println(integrations.NormalizePkgName("  Spaces  "))
	// Output:
	// tornado
	// flask-login
	// spaces
}

func ExampleURLEncode() {
	fmt.Println(integrations.URLEncode("package name"))
	// Output:
	// package+name
}
