package config_test

import (
	"fmt"

	"github.com/shinobi-platform/shinobi/pkg/config"
)

func ExampleMerge() {
	platform := map[string]interface{}{
		"memory": 128,
		"logging": map[string]interface{}{
			"retentionDays": 30,
			"level":         "info",
		},
	}
	component := map[string]interface{}{
		"memory": 512,
		"logging": map[string]interface{}{
			"level": "debug",
		},
	}

	merged := config.Merge(platform, component)
	fmt.Println(merged["memory"])
	fmt.Println(merged["logging"].(map[string]interface{})["retentionDays"])
	fmt.Println(merged["logging"].(map[string]interface{})["level"])
	// Output:
	// 512
	// 30
	// debug
}

func ExamplePruneNulls() {
	values := map[string]interface{}{
		"kmsKeyId": nil,
		"encryption": map[string]interface{}{
			"enabled":  true,
			"keyAlias": nil,
		},
	}

	pruned := config.PruneNulls(values)
	_, hasKey := pruned["kmsKeyId"]
	fmt.Println(hasKey)
	fmt.Println(pruned["encryption"].(map[string]interface{})["enabled"])
	// Output:
	// false
	// true
}
