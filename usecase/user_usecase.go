package usecase

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt"

	"social-hub/domain/dto"
	"social-hub/domain/model"
	"social-hub/domain/repository"
	"social-hub/infrastructure/configuration"
	"social-hub/infrastructure/logger"
)

type ReqLogin struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type ReqRegister struct {
	Name     string `json:"name"`
	UserName string `json:"user_name"`
	Password string `json:"password"`
}

type IUserUsecase interface {
	Login(ctx context.Context, req ReqLogin) dto.Res
	Register(ctx context.Context, req ReqRegister) dto.Res
}

type userUsecase struct {
	userRepository repository.IUser
}

func NewUserUsecase(userRepository repository.IUser) IUserUsecase {
	return &userUsecase{userRepository: userRepository}
}

func (u *userUsecase) Login(ctx context.Context, req ReqLogin) dto.Res {
	var res dto.Res
	user, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching user")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal server error"
		return res
	}
	if user.ID == 0 || user.Password != req.Password {
		res.ResponseCode = "401"
		res.ResponseMessage = "Invalid credentials"
		return res
	}

	claims := model.UserClaims{
		UserName: user.UserName,
		StandardClaims: jwt.StandardClaims{
			Issuer:    user.UserName,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configuration.C.App.SecretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while signing token")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal server error"
		return res
	}

	res.ResponseCode = "200"
	res.ResponseMessage = "OK"
	res.Data = map[string]string{"token": signed}
	return res
}

func (u *userUsecase) Register(ctx context.Context, req ReqRegister) dto.Res {
	var res dto.Res
	existing, err := u.userRepository.GetByUserName(ctx, req.UserName)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching user")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal server error"
		return res
	}
	if existing.ID != 0 {
		res.ResponseCode = "409"
		res.ResponseMessage = "User already exists"
		return res
	}

	user := &model.User{Name: req.Name, UserName: req.UserName, Password: req.Password}
	if err := u.userRepository.CreateUser(ctx, user); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while creating user")
		res.ResponseCode = "500"
		res.ResponseMessage = "Internal server error"
		return res
	}

	res.ResponseCode = "200"
	res.ResponseMessage = "OK"
	res.Data = map[string]int64{"id": user.ID}
	return res
}
