package properties

import "github.com/user/imobiliaria-go/rpc"

// RegisterProcedures adds the properties.* procedures to router.
func RegisterProcedures(router *rpc.Router, svc *PropertyService) {
	router.Query("properties.search", rpc.Typed(func(c *rpc.Context, in SearchInput) (any, error) {
		return svc.Search(c, in)
	}))

	router.Query("properties.getById", rpc.Typed(func(c *rpc.Context, in IDInput) (any, error) {
		return svc.GetByID(c, in.ID)
	}))

	router.Query("properties.myProperties", rpc.Typed(func(c *rpc.Context, _ struct{}) (any, error) {
		if c.User == nil {
			return []Property{}, nil
		}
		return svc.ListByUser(c, c.User.ID)
	}))

	router.Mutation("properties.create", rpc.Typed(func(c *rpc.Context, in CreateInput) (any, error) {
		userID := 0
		if c.User != nil {
			userID = c.User.ID
		}
		return svc.Create(c, in, userID)
	}))

	router.Mutation("properties.update", rpc.Typed(func(c *rpc.Context, in UpdateInput) (any, error) {
		return svc.Update(c, in)
	}))

	router.Mutation("properties.delete", rpc.Typed(func(c *rpc.Context, in IDInput) (any, error) {
		if err := svc.Delete(c, in.ID); err != nil {
			return nil, err
		}
		return DeleteResult{Success: true}, nil
	}))
}
