/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package aws implements a compute.Provider backed by EC2, the concrete
// fleet backend tool/grovectl wires in with --provider aws. Grounded on the
// teacher's lib/autoscale/aws.Autoscaler: the Config/New/EC2-client
// wiring, the trace.Component-tagged logger, and the awserr-to-trace
// ConvertError helper are adapted directly from that file; RunInstances
// and TerminateInstances stand in for the teacher's autoscaling-group
// driven lifecycle, since this engine owns node counts itself rather
// than delegating them to an ASG.
package aws

import (
	"context"

	"github.com/gravitational/grove/lib/constants"
	"github.com/gravitational/grove/lib/defaults"
	"github.com/gravitational/grove/lib/model"
	"github.com/gravitational/grove/lib/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/cenkalti/backoff"
	"github.com/gravitational/trace"
	log "github.com/sirupsen/logrus"
)

// Config configures the EC2 provider.
type Config struct {
	// Region is the AWS region new nodes are created in
	Region string
	// SubnetID is used when a GroupSpec's node spec does not set Network
	SubnetID string
	// SecurityGroupIDs are attached to every created instance
	SecurityGroupIDs []string
	// EC2 is the client used to talk to the EC2 API; a nil value is
	// replaced with a real client built from Region
	EC2 ec2iface.EC2API
}

// CheckAndSetDefaults validates c and builds a default EC2 client if
// none was supplied.
func (c *Config) CheckAndSetDefaults() error {
	if c.Region == "" {
		return trace.BadParameter("aws compute provider: region is required")
	}
	if c.EC2 == nil {
		sess, err := awssession.NewSession(&aws.Config{Region: aws.String(c.Region)})
		if err != nil {
			return trace.Wrap(err)
		}
		c.EC2 = ec2.New(sess)
	}
	return nil
}

// Provider is a compute.Provider backed by EC2.
type Provider struct {
	Config
	*log.Entry
}

// New returns an EC2-backed provider from cfg.
func New(cfg Config) (*Provider, error) {
	if err := cfg.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return &Provider{
		Config: cfg,
		Entry:  log.WithFields(log.Fields{trace.Component: "compute:aws"}),
	}, nil
}

// Nodes lists the running instances tagged with groupName.
func (p *Provider) Nodes(ctx context.Context, groupName string) ([]model.Node, error) {
	resp, err := p.EC2.DescribeInstancesWithContext(ctx, &ec2.DescribeInstancesInput{
		Filters: []*ec2.Filter{
			{Name: aws.String("tag:" + constants.GroupNameTag), Values: aws.StringSlice([]string{groupName})},
			{Name: aws.String("instance-state-name"), Values: aws.StringSlice([]string{"pending", "running"})},
		},
	})
	if err != nil {
		return nil, convertError(err)
	}

	var out []model.Node
	for _, reservation := range resp.Reservations {
		for _, instance := range reservation.Instances {
			out = append(out, newNode(instance))
		}
	}
	return out, nil
}

// CreateNodes launches count EC2 instances for groupName from spec,
// retrying transient EC2 API errors via lib/utils.RetryTransient.
func (p *Provider) CreateNodes(ctx context.Context, groupName string, spec model.NodeSpec, count int) ([]model.Node, error) {
	subnet := spec.Network
	if subnet == "" {
		subnet = p.SubnetID
	}

	input := &ec2.RunInstancesInput{
		ImageId:          aws.String(spec.Image),
		InstanceType:     aws.String(spec.Flavor),
		MinCount:         aws.Int64(int64(count)),
		MaxCount:         aws.Int64(int64(count)),
		SubnetId:         aws.String(subnet),
		SecurityGroupIds: aws.StringSlice(p.SecurityGroupIDs),
		TagSpecifications: []*ec2.TagSpecification{{
			ResourceType: aws.String("instance"),
			Tags:         instanceTags(groupName, spec),
		}},
	}

	var resp *ec2.Reservation
	run := func() error {
		var err error
		resp, err = p.EC2.RunInstancesWithContext(ctx, input)
		return convertTransient(err)
	}
	if err := utils.RetryTransient(ctx, utils.NewExponentialBackOff(defaults.DefaultProviderTimeout), run); err != nil {
		return nil, trace.Wrap(err, "create %d node(s) for group %q", count, groupName)
	}

	out := make([]model.Node, 0, len(resp.Instances))
	for _, instance := range resp.Instances {
		out = append(out, newNode(instance))
	}
	return out, nil
}

// DestroyNodes terminates the given nodes and waits for them to reach
// the terminated state.
func (p *Provider) DestroyNodes(ctx context.Context, nodes []model.Node) ([]model.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}

	_, err := p.EC2.TerminateInstancesWithContext(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: aws.StringSlice(ids),
	})
	if err != nil {
		return nil, convertError(err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, defaults.DefaultProviderTimeout)
	defer cancel()
	if err := p.EC2.WaitUntilInstanceTerminatedWithContext(waitCtx, &ec2.DescribeInstancesInput{InstanceIds: aws.StringSlice(ids)}); err != nil {
		return nil, trace.Wrap(err, "waiting for %d instance(s) to terminate", len(ids))
	}
	return nodes, nil
}

func instanceTags(groupName string, spec model.NodeSpec) []*ec2.Tag {
	tags := []*ec2.Tag{{Key: aws.String(constants.GroupNameTag), Value: aws.String(groupName)}}
	for k, v := range spec.Params {
		tags = append(tags, &ec2.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return tags
}

type instanceNode struct {
	id       string
	baseName string
	ip       string
	tags     map[string]string
}

func (n instanceNode) ID() string              { return n.id }
func (n instanceNode) BaseName() string        { return n.baseName }
func (n instanceNode) PrimaryIP() string       { return n.ip }
func (n instanceNode) Tags() map[string]string { return n.tags }

func newNode(instance *ec2.Instance) model.Node {
	tags := make(map[string]string, len(instance.Tags))
	for _, t := range instance.Tags {
		tags[aws.StringValue(t.Key)] = aws.StringValue(t.Value)
	}
	return instanceNode{
		id:       aws.StringValue(instance.InstanceId),
		baseName: tags[constants.GroupNameTag],
		ip:       aws.StringValue(instance.PrivateIpAddress),
		tags:     tags,
	}
}

// convertError converts an AWS SDK error to the engine's trace taxonomy,
// adapted from lib/autoscale/aws.ConvertError.
func convertError(err error) error {
	if err == nil {
		return nil
	}
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case "InvalidInstanceID.NotFound":
			return trace.NotFound(awsErr.Error())
		case "RequestLimitExceeded", "Throttling":
			return trace.LimitExceeded(awsErr.Error())
		default:
			return trace.BadParameter(awsErr.Error())
		}
	}
	return trace.Wrap(err)
}

// convertTransient wraps throttling-class errors in a form
// utils.RetryTransient will retry; anything else is permanent.
func convertTransient(err error) error {
	if err == nil {
		return nil
	}
	converted := convertError(err)
	if trace.IsLimitExceeded(converted) {
		return converted
	}
	return backoff.Permanent(converted)
}
