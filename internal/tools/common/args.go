package common

import "fmt"

// InvalidParamMessage is the tool error text for a missing or mistyped argument.
func InvalidParamMessage(name string) string {
	return fmt.Sprintf("Missing or invalid '%s' parameter", name)
}

// GetStringArg returns args[name] when it is present and a string.
// An empty string is a valid value.
func GetStringArg(args map[string]interface{}, name string) (string, bool) {
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
