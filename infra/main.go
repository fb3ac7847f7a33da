package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/ridgelinevc/portfolio-backend/infra/cloudrun"
	"github.com/ridgelinevc/portfolio-backend/infra/docker"
	"github.com/ridgelinevc/portfolio-backend/infra/provider"
	"github.com/ridgelinevc/portfolio-backend/infra/vertex"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable vertex for metric extraction
		err = vertex.SetupVertex(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx)
		if err != nil {
			return err
		}

		_, err = cloudrun.SetupCloudRun(ctx, prov, repo)
		if err != nil {
			return err
		}

		return nil
	})
}
