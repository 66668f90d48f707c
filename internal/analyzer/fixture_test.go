package analyzer

import "github.com/ppiankov/awsatlas/internal/inventory"

func rec(kind inventory.Kind, id, name string, sgs ...string) inventory.Record {
	return inventory.Record{
		Kind:             kind,
		ID:               id,
		Name:             name,
		Environment:      inventory.Classify(name, nil),
		SecurityGroupIDs: sgs,
	}
}

func sampleInventory() *inventory.Inventory {
	inv := inventory.New()
	inv.Subnets = []inventory.Subnet{
		{ID: "subnet-a", Name: "prod-private-a", VpcID: "vpc-1"},
		{ID: "subnet-b", VpcID: "vpc-1"},
	}

	vpc := rec(inventory.KindVPCs, "vpc-1", "prod-vpc")
	vpc.Tags = inventory.Pairs{{Key: "Name", Value: "prod-vpc"}}
	inv.Set(inventory.OK(inventory.KindVPCs, []inventory.Record{vpc}))

	inv.Set(inventory.OK(inventory.KindSecurityGroups, []inventory.Record{
		rec(inventory.KindSecurityGroups, "sg-web", "prod-web"),
		rec(inventory.KindSecurityGroups, "sg-db", "prod-db"),
		rec(inventory.KindSecurityGroups, "sg-idle", "dev-idle"),
	}))

	web := rec(inventory.KindInstances, "i-1", "prod-web-1", "sg-web")
	web.Tags = inventory.Pairs{{Key: "Name", Value: "prod-web-1"}}
	bastion := rec(inventory.KindInstances, "i-2", "i-2", "sg-web")
	inv.Set(inventory.OK(inventory.KindInstances, []inventory.Record{web, bastion}))

	inv.Set(inventory.OK(inventory.KindRDSInstances, []inventory.Record{
		rec(inventory.KindRDSInstances, "orders-prod", "orders-prod", "sg-db"),
	}))
	inv.Set(inventory.OK(inventory.KindFunctions, []inventory.Record{
		rec(inventory.KindFunctions, "arn:aws:lambda:us-east-1:1:function:dev-sync", "dev-sync", "sg-db", "sg-db"),
	}))
	inv.Set(inventory.OK(inventory.KindLoadBalancers, []inventory.Record{
		rec(inventory.KindLoadBalancers, "arn:lb/app/prod-edge/1", "prod-edge", "sg-web"),
	}))
	inv.Set(inventory.Denied(inventory.KindUserPools))
	return inv
}
