package handler

import (
	"gorm.io/gorm"

	"taskboard-service/internal/model"
)

// isProjectMember reports whether the user belongs to the project. The owner
// always counts as a member.
func isProjectMember(db *gorm.DB, project *model.Project, userID uint) (bool, error) {
	if project.OwnerID == userID {
		return true, nil
	}
	var n int64
	err := db.Model(&model.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&n).Error
	return n > 0, err
}

// projectMembers loads the member users of a project, owner included
func projectMembers(db *gorm.DB, project *model.Project) ([]model.User, error) {
	var users []model.User
	err := db.
		Joins("JOIN project_members ON project_members.user_id = users.id").
		Where("project_members.project_id = ?", project.ID).
		Order("users.id").
		Find(&users).Error
	return users, err
}

// nextPosition returns max(position)+1 over the given query, 0 for an empty
// collection
func nextPosition(q *gorm.DB) (int, error) {
	var max *int
	if err := q.Select("MAX(position)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

// deleteProjectCascade removes a project together with its membership rows,
// lists, tasks and comments. Runs inside the request's tenant session, so
// the whole cascade commits or rolls back with the request.
func deleteProjectCascade(db *gorm.DB, project *model.Project) error {
	listIDs := db.Model(&model.List{}).Select("id").Where("project_id = ?", project.ID)
	taskIDs := db.Model(&model.Task{}).Select("id").Where("list_id IN (?)", listIDs)

	if err := db.Where("task_id IN (?)", taskIDs).Delete(&model.Comment{}).Error; err != nil {
		return err
	}
	if err := db.Where("list_id IN (?)", listIDs).Delete(&model.Task{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", project.ID).Delete(&model.List{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", project.ID).Delete(&model.ProjectMember{}).Error; err != nil {
		return err
	}
	return db.Delete(project).Error
}

// projectForList loads a list and its owning project
func projectForList(db *gorm.DB, listID uint) (*model.List, *model.Project, error) {
	var list model.List
	if result := db.First(&list, listID); result.Error != nil {
		return nil, nil, result.Error
	}
	var project model.Project
	if result := db.First(&project, list.ProjectID); result.Error != nil {
		return nil, nil, result.Error
	}
	return &list, &project, nil
}

// projectForTask loads a task and the project owning its list
func projectForTask(db *gorm.DB, taskID uint) (*model.Task, *model.Project, error) {
	var task model.Task
	if result := db.First(&task, taskID); result.Error != nil {
		return nil, nil, result.Error
	}
	_, project, err := projectForList(db, task.ListID)
	if err != nil {
		return nil, nil, err
	}
	return &task, project, nil
}
