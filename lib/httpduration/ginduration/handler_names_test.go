package ginduration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerNames(t *testing.T) {
	tests := map[string]struct {
		name       string
		controller string
		action     string
	}{
		"PointerMethodValue": {
			name:       "github.com/acme/shop/api.(*ItemsController).Get-fm",
			controller: "ItemsController",
			action:     "Get",
		},
		"ValueMethodValue": {
			name:       "github.com/acme/shop/api.ItemsController.List-fm",
			controller: "ItemsController",
			action:     "List",
		},
		"PlainFunc": {
			name:       "main.listItems",
			controller: "main",
			action:     "listItems",
		},
		"DottedPackageFunc": {
			name:       "gopkg.in/foo.v2.Handler",
			controller: "foo.v2",
			action:     "Handler",
		},
		"DottedPackageMethod": {
			name:       "gopkg.in/foo.v2.(*Items).Get-fm",
			controller: "Items",
			action:     "Get",
		},
		"DottedPackageValueMethod": {
			name:       "gopkg.in/foo.v2.Items.List-fm",
			controller: "Items",
			action:     "List",
		},
		"NoPackage": {
			name:   "handler",
			action: "handler",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			controller, action := handlerNames(tc.name)
			assert.Equal(t, tc.controller, controller)
			assert.Equal(t, tc.action, action)
		})
	}
}
