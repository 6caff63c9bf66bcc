package config

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

// terraformOutput is one entry of `terraform output -json`.
type terraformOutput struct {
	Value any `json:"value"`
}

// TerraformOutputs runs `terraform output -json` in dir and returns the
// flattened output values. The caller decides how to react to a missing
// terraform binary or an un-applied workspace.
func TerraformOutputs(dir string) (map[string]string, error) {
	cmd := exec.Command("terraform", "output", "-json")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to run terraform output in %s (has 'terraform apply' been run?): %w", dir, err)
	}

	var raw map[string]terraformOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse terraform output: %w", err)
	}

	outputs := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.Value.(string); ok {
			outputs[k] = s
		} else {
			outputs[k] = fmt.Sprintf("%v", v.Value)
		}
	}
	return outputs, nil
}

// ApplyTerraformOutputs overlays terraform output values onto the config.
// Only the keys terraform owns are touched.
func (c *Config) ApplyTerraformOutputs(outputs map[string]string) {
	if v, ok := outputs["s3_bucket_name"]; ok {
		c.S3BucketName = v
	}
	if v, ok := outputs["aws_region"]; ok {
		c.AWSRegion = v
	}
	if v, ok := outputs["snowflake_role_arn"]; ok {
		c.SnowflakeRoleARN = v
	}
	if v, ok := outputs["sagemaker_role_arn"]; ok {
		c.SageMakerRoleARN = v
	}
	if v, ok := outputs["snowflake_integration_status"]; ok {
		c.IntegrationStatus = v
	}
}
