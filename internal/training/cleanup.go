package training

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// resourceNameMarker selects which hosted resources cleanup may touch.
// Everything the tutorial creates carries "animal" in its name.
const resourceNameMarker = "animal"

// CleanupResources deletes endpoints, endpoint configs and models whose
// names contain the tutorial marker, and returns a description of each
// deleted resource. Used before terraform destroy to stop billable
// resources.
func (s *Service) CleanupResources(ctx context.Context) ([]string, error) {
	var cleaned []string

	endpoints, err := s.client.ListEndpoints(ctx, &sagemaker.ListEndpointsInput{})
	if err != nil {
		return cleaned, fmt.Errorf("failed to list endpoints: %w", err)
	}
	for _, ep := range endpoints.Endpoints {
		name := aws.ToString(ep.EndpointName)
		if !strings.Contains(strings.ToLower(name), resourceNameMarker) {
			continue
		}
		log.Printf("Deleting endpoint: %s", name)
		if _, err := s.client.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{EndpointName: aws.String(name)}); err != nil {
			return cleaned, fmt.Errorf("failed to delete endpoint %s: %w", name, err)
		}
		cleaned = append(cleaned, "Endpoint: "+name)
	}

	configs, err := s.client.ListEndpointConfigs(ctx, &sagemaker.ListEndpointConfigsInput{})
	if err != nil {
		return cleaned, fmt.Errorf("failed to list endpoint configs: %w", err)
	}
	for _, cfg := range configs.EndpointConfigs {
		name := aws.ToString(cfg.EndpointConfigName)
		if !strings.Contains(strings.ToLower(name), resourceNameMarker) {
			continue
		}
		log.Printf("Deleting endpoint config: %s", name)
		if _, err := s.client.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{EndpointConfigName: aws.String(name)}); err != nil {
			return cleaned, fmt.Errorf("failed to delete endpoint config %s: %w", name, err)
		}
		cleaned = append(cleaned, "Endpoint config: "+name)
	}

	models, err := s.client.ListModels(ctx, &sagemaker.ListModelsInput{})
	if err != nil {
		return cleaned, fmt.Errorf("failed to list models: %w", err)
	}
	for _, m := range models.Models {
		name := aws.ToString(m.ModelName)
		if !strings.Contains(strings.ToLower(name), resourceNameMarker) {
			continue
		}
		log.Printf("Deleting model: %s", name)
		if _, err := s.client.DeleteModel(ctx, &sagemaker.DeleteModelInput{ModelName: aws.String(name)}); err != nil {
			return cleaned, fmt.Errorf("failed to delete model %s: %w", name, err)
		}
		cleaned = append(cleaned, "Model: "+name)
	}

	if len(cleaned) == 0 {
		log.Printf("No hosted resources found to clean up")
	} else {
		log.Printf("Cleaned up %d hosted resources", len(cleaned))
	}
	return cleaned, nil
}
