package training

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"
	"github.com/google/uuid"
)

// SageMakerAPI is the subset of the SageMaker control-plane client the
// service uses; tests substitute a mock.
type SageMakerAPI interface {
	CreateTrainingJob(ctx context.Context, params *sagemaker.CreateTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJob(ctx context.Context, params *sagemaker.DescribeTrainingJobInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeTrainingJobOutput, error)
	CreateModel(ctx context.Context, params *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, params *sagemaker.CreateEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	CreateEndpoint(ctx context.Context, params *sagemaker.CreateEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	DescribeEndpoint(ctx context.Context, params *sagemaker.DescribeEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	DeleteEndpoint(ctx context.Context, params *sagemaker.DeleteEndpointInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error)
	DeleteEndpointConfig(ctx context.Context, params *sagemaker.DeleteEndpointConfigInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error)
	DeleteModel(ctx context.Context, params *sagemaker.DeleteModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error)
	ListEndpoints(ctx context.Context, params *sagemaker.ListEndpointsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error)
	ListEndpointConfigs(ctx context.Context, params *sagemaker.ListEndpointConfigsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointConfigsOutput, error)
	ListModels(ctx context.Context, params *sagemaker.ListModelsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListModelsOutput, error)
}

// RuntimeAPI is the inference data-plane client.
type RuntimeAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// Options configures the training service.
type Options struct {
	RoleARN       string
	TrainingImage string
	InstanceType  string
	EndpointName  string
	// PollInterval between status checks while waiting on the managed
	// service; shortened in tests.
	PollInterval time.Duration
}

// Service drives the managed training and hosting boundary. All long-running
// operations poll the control plane and honor context cancellation.
type Service struct {
	client  SageMakerAPI
	runtime RuntimeAPI
	opts    Options

	// Names of the resources the last Deploy created, kept so TearDown
	// can remove exactly this deployment.
	modelName  string
	configName string
}

// NewService creates a training Service.
func NewService(client SageMakerAPI, runtime RuntimeAPI, opts Options) *Service {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.InstanceType == "" {
		opts.InstanceType = "ml.m5.large"
	}
	return &Service{client: client, runtime: runtime, opts: opts}
}

// Train submits a training job for the labeled dataset and waits for it to
// complete, returning the model artifact location.
func (s *Service) Train(ctx context.Context, spec JobSpec) (*TrainResult, error) {
	if spec.TrainDataS3URI == "" || spec.OutputS3URI == "" {
		return nil, fmt.Errorf("training spec requires train data and output S3 URIs")
	}
	hyper := spec.Hyperparameters
	if len(hyper) == 0 {
		hyper = DefaultHyperparameters()
	}

	jobName := fmt.Sprintf("animal-insights-train-%s", shortID())
	_, err := s.client.CreateTrainingJob(ctx, &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(jobName),
		RoleArn:         aws.String(s.opts.RoleARN),
		AlgorithmSpecification: &smtypes.AlgorithmSpecification{
			TrainingImage:     aws.String(s.opts.TrainingImage),
			TrainingInputMode: smtypes.TrainingInputModeFile,
		},
		HyperParameters: hyper,
		InputDataConfig: []smtypes.Channel{
			{
				ChannelName: aws.String("train"),
				ContentType: aws.String("text/csv"),
				DataSource: &smtypes.DataSource{
					S3DataSource: &smtypes.S3DataSource{
						S3DataType: smtypes.S3DataTypeS3Prefix,
						S3Uri:      aws.String(spec.TrainDataS3URI),
					},
				},
			},
		},
		OutputDataConfig: &smtypes.OutputDataConfig{
			S3OutputPath: aws.String(spec.OutputS3URI),
		},
		ResourceConfig: &smtypes.ResourceConfig{
			InstanceType:   smtypes.TrainingInstanceType(s.opts.InstanceType),
			InstanceCount:  aws.Int32(1),
			VolumeSizeInGB: aws.Int32(10),
		},
		StoppingCondition: &smtypes.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(3600),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create training job %s: %w", jobName, err)
	}
	log.Printf("Created training job %s", jobName)

	artifact, err := s.waitForTrainingJob(ctx, jobName)
	if err != nil {
		return nil, err
	}
	return &TrainResult{JobName: jobName, ModelArtifactURI: artifact}, nil
}

func (s *Service) waitForTrainingJob(ctx context.Context, jobName string) (string, error) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		out, err := s.client.DescribeTrainingJob(ctx, &sagemaker.DescribeTrainingJobInput{
			TrainingJobName: aws.String(jobName),
		})
		if err != nil {
			return "", fmt.Errorf("failed to describe training job %s: %w", jobName, err)
		}
		switch out.TrainingJobStatus {
		case smtypes.TrainingJobStatusCompleted:
			if out.ModelArtifacts == nil {
				return "", fmt.Errorf("training job %s completed without model artifacts", jobName)
			}
			return aws.ToString(out.ModelArtifacts.S3ModelArtifacts), nil
		case smtypes.TrainingJobStatusFailed, smtypes.TrainingJobStatusStopped:
			return "", fmt.Errorf("training job %s ended with status %s: %s",
				jobName, out.TrainingJobStatus, aws.ToString(out.FailureReason))
		}
		log.Printf("Training job %s status: %s", jobName, out.TrainingJobStatus)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("gave up waiting for training job %s: %w", jobName, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Deploy creates model, endpoint config and endpoint from a finished
// training job and waits until the endpoint is in service.
func (s *Service) Deploy(ctx context.Context, result *TrainResult) error {
	modelName := fmt.Sprintf("animal-insights-model-%s", shortID())
	_, err := s.client.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(modelName),
		ExecutionRoleArn: aws.String(s.opts.RoleARN),
		PrimaryContainer: &smtypes.ContainerDefinition{
			Image:        aws.String(s.opts.TrainingImage),
			ModelDataUrl: aws.String(result.ModelArtifactURI),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create model %s: %w", modelName, err)
	}

	configName := fmt.Sprintf("animal-insights-config-%s", shortID())
	_, err = s.client.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(configName),
		ProductionVariants: []smtypes.ProductionVariant{
			{
				VariantName:          aws.String("AllTraffic"),
				ModelName:            aws.String(modelName),
				InitialInstanceCount: aws.Int32(1),
				InstanceType:         smtypes.ProductionVariantInstanceType(s.opts.InstanceType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create endpoint config %s: %w", configName, err)
	}

	_, err = s.client.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(s.opts.EndpointName),
		EndpointConfigName: aws.String(configName),
	})
	if err != nil {
		return fmt.Errorf("failed to create endpoint %s: %w", s.opts.EndpointName, err)
	}
	log.Printf("Created endpoint %s (model %s)", s.opts.EndpointName, modelName)
	s.modelName = modelName
	s.configName = configName

	return s.waitForEndpoint(ctx)
}

// TearDown deletes the hosted endpoint together with the endpoint config and
// model Deploy created. When Deploy did not run in this process the config
// name is recovered from the endpoint description; the model is then left for
// CleanupResources.
func (s *Service) TearDown(ctx context.Context) error {
	configName := s.configName
	if configName == "" {
		out, err := s.client.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
			EndpointName: aws.String(s.opts.EndpointName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe endpoint %s: %w", s.opts.EndpointName, err)
		}
		configName = aws.ToString(out.EndpointConfigName)
	}

	if _, err := s.client.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(s.opts.EndpointName),
	}); err != nil {
		return fmt.Errorf("failed to delete endpoint %s: %w", s.opts.EndpointName, err)
	}
	log.Printf("Deleted endpoint %s", s.opts.EndpointName)

	if configName != "" {
		if _, err := s.client.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
			EndpointConfigName: aws.String(configName),
		}); err != nil {
			return fmt.Errorf("failed to delete endpoint config %s: %w", configName, err)
		}
	}
	if s.modelName != "" {
		if _, err := s.client.DeleteModel(ctx, &sagemaker.DeleteModelInput{
			ModelName: aws.String(s.modelName),
		}); err != nil {
			return fmt.Errorf("failed to delete model %s: %w", s.modelName, err)
		}
	}
	return nil
}

func (s *Service) waitForEndpoint(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()
	for {
		out, err := s.client.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
			EndpointName: aws.String(s.opts.EndpointName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe endpoint %s: %w", s.opts.EndpointName, err)
		}
		switch out.EndpointStatus {
		case smtypes.EndpointStatusInService:
			log.Printf("Endpoint %s is in service", s.opts.EndpointName)
			return nil
		case smtypes.EndpointStatusFailed:
			return fmt.Errorf("endpoint %s failed: %s", s.opts.EndpointName, aws.ToString(out.FailureReason))
		}
		log.Printf("Endpoint %s status: %s", s.opts.EndpointName, out.EndpointStatus)

		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for endpoint %s: %w", s.opts.EndpointName, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Predict sends one JSON record batch to the endpoint and decodes the
// per-record predictions.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if len(req.Instances) == 0 {
		return &PredictResponse{Predictions: []Prediction{}}, nil
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	out, err := s.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(s.opts.EndpointName),
		ContentType:  aws.String("application/json"),
		Body:         body,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke endpoint %s: %w", s.opts.EndpointName, err)
	}

	var resp PredictResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode endpoint response: %w", err)
	}
	if len(resp.Predictions) != len(req.Instances) {
		return nil, fmt.Errorf("endpoint returned %d predictions for %d records",
			len(resp.Predictions), len(req.Instances))
	}
	return &resp, nil
}

func shortID() string {
	return strings.Split(uuid.New().String(), "-")[0]
}
