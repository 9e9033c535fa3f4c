package static

import (
	"fmt"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

const (
	maxScriptVars     = 15
	maxScriptValueLen = 200
)

// captureScriptData executes inline scripts in a minimal JS sandbox and
// collects data assigned to globals. Many server-rendered pages stash their
// payload in window-level variables; surfacing those gives the extractor
// data the visible text lacks. Script errors are expected and ignored.
func captureScriptData(pageURL string, doc *goquery.Document) []string {
	if doc.Find("script").Length() == 0 {
		return nil
	}

	vm := goja.New()

	// Mock just enough browser surface to capture assignments.
	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("document", map[string]interface{}{
		"location": map[string]interface{}{
			"href": pageURL,
		},
	})
	vm.Set("location", map[string]interface{}{
		"href": pageURL,
	})
	vm.Set("console", map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value {
			return nil
		},
		"error": func(call goja.FunctionCall) goja.Value {
			return nil
		},
	})

	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		// Skip external scripts
		if _, exists := sel.Attr("src"); exists {
			return
		}

		if content := sel.Text(); content != "" {
			// Most scripts fail on the missing DOM; that's fine.
			_, _ = vm.RunString(content)
		}
	})

	var pairs []string
	for _, key := range vm.GlobalObject().Keys() {
		if isStandardGlobal(key) {
			continue
		}

		val := vm.Get(key)
		if val == nil {
			continue
		}
		exported := val.Export()
		if exported == nil {
			continue
		}
		if _, isFn := goja.AssertFunction(val); isFn {
			continue
		}

		rendered := fmt.Sprintf("%v", exported)
		if len(rendered) > maxScriptValueLen {
			rendered = rendered[:maxScriptValueLen] + "..."
		}
		pairs = append(pairs, key+" = "+rendered)
	}

	sort.Strings(pairs)
	if len(pairs) > maxScriptVars {
		pairs = pairs[:maxScriptVars]
	}
	return pairs
}

func isStandardGlobal(key string) bool {
	standards := map[string]bool{
		"window": true, "self": true, "document": true, "location": true, "console": true,
		"Object": true, "Array": true, "String": true, "Number": true, "Boolean": true,
		"Date": true, "Math": true, "JSON": true, "RegExp": true, "Error": true,
		"Function": true, "parseInt": true, "parseFloat": true, "isNaN": true,
		"isFinite": true, "encodeURI": true, "decodeURI": true, "encodeURIComponent": true,
		"decodeURIComponent": true, "undefined": true, "NaN": true, "Infinity": true,
	}
	return standards[key]
}
